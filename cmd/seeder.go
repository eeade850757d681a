package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			fmt.Println("Clearing existing data")
			if err := db.Exec("DELETE FROM gate_passes").Error; err != nil {
				log.Fatalf("failed to clear gate passes: %v", err)
			}
			if err := db.Exec("DELETE FROM departments").Error; err != nil {
				log.Fatalf("failed to clear departments: %v", err)
			}
			if err := db.Exec("DELETE FROM actors").Error; err != nil {
				log.Fatalf("failed to clear actors: %v", err)
			}
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)

		departments := []string{"Computer Science", "Mechanical Engineering", "Student Affairs"}
		for _, name := range departments {
			var exists int
			row := db.Raw("SELECT 1 FROM departments WHERE name = ?", name).Row()
			if err := row.Scan(&exists); err != nil {
				if err := db.Exec("INSERT INTO departments (name, is_active, created_at, updated_at) VALUES (?, true, now(), now())", name).Error; err != nil {
					log.Fatalf("failed to insert department %s: %v", name, err)
				}
				fmt.Println("Seeded department:", name)
			}
		}

		actors := []struct {
			Name       string
			Email      string
			Role       string
			Department *string
		}{
			{"Rina Kartika", "rina@campus.test", "department_head", &departments[0]},
			{"Bayu Santoso", "bayu@campus.test", "department_head", &departments[1]},
			{"Prof. Hendra Wijaya", "hendra@campus.test", "institution_head", nil},
			{"Agus Pratama", "agus@campus.test", "gate_attendant", nil},
			{"Siti Rahma", "siti@campus.test", "student", nil},
		}

		for _, a := range actors {
			var exists int
			row := db.Raw("SELECT 1 FROM actors WHERE email = ?", a.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Println("Actor already exists:", a.Email)
				continue
			}

			if err := db.Exec(
				"INSERT INTO actors (name, email, password_hash, role, department, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
				a.Name, a.Email, string(hash), a.Role, a.Department,
			).Error; err != nil {
				log.Fatalf("failed to insert actor %s: %v", a.Email, err)
			}
			fmt.Println("Seeded actor:", a.Email)
		}

		// Bind the seeded department heads to their departments.
		for i := 0; i < 2; i++ {
			var headID int64
			if err := db.Raw("SELECT id FROM actors WHERE email = ?", actors[i].Email).Row().Scan(&headID); err != nil {
				log.Fatalf("failed to lookup head id for %s: %v", actors[i].Email, err)
			}
			if err := db.Exec("UPDATE departments SET head_actor_id = ?, updated_at = now() WHERE name = ?", headID, departments[i]).Error; err != nil {
				log.Fatalf("failed to assign head for %s: %v", departments[i], err)
			}
		}

		fmt.Println("Seed complete; all seeded accounts use password:", password)
	},
}
