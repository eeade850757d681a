package actor_test

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dwiprasetya/gatepass-management/internal"
	"github.com/dwiprasetya/gatepass-management/internal/actor"
	"github.com/dwiprasetya/gatepass-management/internal/auth"
)

// Mock repository for testing
type mockActorRepository struct {
	actors      map[int64]*actor.Actor
	createError error
	updateError error
	nextID      int64
}

func newMockActorRepository() *mockActorRepository {
	return &mockActorRepository{
		actors: make(map[int64]*actor.Actor),
		nextID: 1,
	}
}

func (m *mockActorRepository) Create(a *actor.Actor) error {
	if m.createError != nil {
		return m.createError
	}
	for _, existing := range m.actors {
		if existing.Email == a.Email {
			return internal.ErrDuplicateEmail
		}
	}
	a.ID = m.nextID
	m.nextID++
	m.actors[a.ID] = a
	return nil
}

func (m *mockActorRepository) GetByID(id int64) (*actor.Actor, error) {
	a, exists := m.actors[id]
	if !exists {
		return nil, internal.ErrActorNotFound
	}
	return a, nil
}

func (m *mockActorRepository) GetByEmail(email string) (*actor.Actor, error) {
	for _, a := range m.actors {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, internal.ErrActorNotFound
}

func (m *mockActorRepository) List(limit, offset int) ([]*actor.Actor, error) {
	result := []*actor.Actor{}
	for _, a := range m.actors {
		result = append(result, a)
	}
	return result, nil
}

func (m *mockActorRepository) Update(a *actor.Actor) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.actors[a.ID] = a
	return nil
}

func (m *mockActorRepository) Deactivate(id int64, now time.Time) error {
	if a, exists := m.actors[id]; exists {
		a.IsActive = false
		a.UpdatedAt = now
	}
	return nil
}

type mockPasswordHasher struct {
	hashError error
}

func (m *mockPasswordHasher) HashPassword(password string) (string, error) {
	if m.hashError != nil {
		return "", m.hashError
	}
	return "hashed:" + password, nil
}

type mockGatePassCounter struct {
	pendingCounts map[string]int64
}

func (m *mockGatePassCounter) CountPendingForDepartment(dept string) (int64, error) {
	return m.pendingCounts[dept], nil
}

type mockDepartmentRegistry struct {
	releasedActorIDs []int64
	releaseError     error
}

func (m *mockDepartmentRegistry) ReleaseHeadFor(actorID int64, now time.Time) error {
	if m.releaseError != nil {
		return m.releaseError
	}
	m.releasedActorIDs = append(m.releasedActorIDs, actorID)
	return nil
}

var _ = Describe("ActorService", func() {
	var (
		service     *actor.Service
		mockRepo    *mockActorRepository
		hasher      *mockPasswordHasher
		gatePasses  *mockGatePassCounter
		departments *mockDepartmentRegistry
		logger      *slog.Logger
	)

	strPtr := func(s string) *string { return &s }

	BeforeEach(func() {
		mockRepo = newMockActorRepository()
		hasher = &mockPasswordHasher{}
		gatePasses = &mockGatePassCounter{pendingCounts: make(map[string]int64)}
		departments = &mockDepartmentRegistry{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = actor.NewService(mockRepo, hasher, gatePasses, departments, logger)
	})

	Describe("CreateActor", func() {
		Context("with a valid department head", func() {
			It("should create the account with a hashed password", func() {
				result, err := service.CreateActor(actor.CreateActorDTO{
					Name:       "Rina Kartika",
					Email:      "rina@campus.test",
					Password:   "secret-password",
					Role:       auth.RoleDepartmentHead,
					Department: strPtr("Computer Science"),
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(result.ID).To(BeNumerically(">", 0))
				Expect(result.PasswordHash).To(Equal("hashed:secret-password"))
				Expect(result.IsActive).To(BeTrue())
			})
		})

		Context("with role and department mismatches", func() {
			It("should require a department for a department head", func() {
				_, err := service.CreateActor(actor.CreateActorDTO{
					Name:     "Rina Kartika",
					Email:    "rina@campus.test",
					Password: "secret-password",
					Role:     auth.RoleDepartmentHead,
				})

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("department is required"))
			})

			It("should refuse a department on a non-head role", func() {
				_, err := service.CreateActor(actor.CreateActorDTO{
					Name:       "Agus Pratama",
					Email:      "agus@campus.test",
					Password:   "secret-password",
					Role:       auth.RoleGateAttendant,
					Department: strPtr("Computer Science"),
				})

				Expect(err).To(MatchError(internal.ErrRoleDepartment))
			})
		})

		Context("with invalid input", func() {
			It("should reject an unknown role", func() {
				_, err := service.CreateActor(actor.CreateActorDTO{
					Name:     "Someone",
					Email:    "someone@campus.test",
					Password: "secret-password",
					Role:     "superuser",
				})

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("unknown role"))
			})

			It("should reject a short password", func() {
				_, err := service.CreateActor(actor.CreateActorDTO{
					Name:     "Someone",
					Email:    "someone@campus.test",
					Password: "short",
					Role:     auth.RoleStudent,
				})

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("at least 8 characters"))
			})
		})

		Context("with a duplicate email", func() {
			It("should surface the conflict", func() {
				dto := actor.CreateActorDTO{
					Name:     "Agus Pratama",
					Email:    "agus@campus.test",
					Password: "secret-password",
					Role:     auth.RoleGateAttendant,
				}
				_, err := service.CreateActor(dto)
				Expect(err).ToNot(HaveOccurred())

				_, err = service.CreateActor(dto)
				Expect(err).To(MatchError(internal.ErrDuplicateEmail))
			})
		})
	})

	Describe("UpdateActor", func() {
		var created *actor.Actor

		BeforeEach(func() {
			var err error
			created, err = service.CreateActor(actor.CreateActorDTO{
				Name:     "Agus Pratama",
				Email:    "agus@campus.test",
				Password: "secret-password",
				Role:     auth.RoleGateAttendant,
			})
			Expect(err).ToNot(HaveOccurred())
		})

		It("should update the provided fields only", func() {
			result, err := service.UpdateActor(created.ID, actor.UpdateActorDTO{
				Name: strPtr("Agus P."),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Name).To(Equal("Agus P."))
			Expect(result.Email).To(Equal("agus@campus.test"))
		})

		It("should rehash a changed password", func() {
			result, err := service.UpdateActor(created.ID, actor.UpdateActorDTO{
				Password: strPtr("new-password"),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.PasswordHash).To(Equal("hashed:new-password"))
		})

		It("should return not found for an unknown actor", func() {
			_, err := service.UpdateActor(999, actor.UpdateActorDTO{Name: strPtr("Ghost")})

			Expect(err).To(MatchError(internal.ErrActorNotFound))
		})

		It("should move a head to another department", func() {
			head, err := service.CreateActor(actor.CreateActorDTO{
				Name:       "Rina Kartika",
				Email:      "rina@campus.test",
				Password:   "secret-password",
				Role:       auth.RoleDepartmentHead,
				Department: strPtr("Computer Science"),
			})
			Expect(err).ToNot(HaveOccurred())

			result, err := service.UpdateActor(head.ID, actor.UpdateActorDTO{
				Department: strPtr("Mechanical Engineering"),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(*result.Department).To(Equal("Mechanical Engineering"))
		})

		It("should refuse a department on a non-head account", func() {
			_, err := service.UpdateActor(created.ID, actor.UpdateActorDTO{
				Department: strPtr("Computer Science"),
			})

			Expect(err).To(MatchError(internal.ErrRoleDepartment))
		})

		It("should refuse clearing a head's department", func() {
			head, err := service.CreateActor(actor.CreateActorDTO{
				Name:       "Rina Kartika",
				Email:      "rina@campus.test",
				Password:   "secret-password",
				Role:       auth.RoleDepartmentHead,
				Department: strPtr("Computer Science"),
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdateActor(head.ID, actor.UpdateActorDTO{
				Department: strPtr(""),
			})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("department is required"))
		})
	})

	Describe("DeactivateActor", func() {
		It("should deactivate an idle account", func() {
			created, err := service.CreateActor(actor.CreateActorDTO{
				Name:     "Agus Pratama",
				Email:    "agus@campus.test",
				Password: "secret-password",
				Role:     auth.RoleGateAttendant,
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.DeactivateActor(created.ID)).To(Succeed())
			Expect(mockRepo.actors[created.ID].IsActive).To(BeFalse())
			Expect(departments.releasedActorIDs).To(BeEmpty())
		})

		It("should release the department head link for an idle head", func() {
			head, err := service.CreateActor(actor.CreateActorDTO{
				Name:       "Rina Kartika",
				Email:      "rina@campus.test",
				Password:   "secret-password",
				Role:       auth.RoleDepartmentHead,
				Department: strPtr("Computer Science"),
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.DeactivateActor(head.ID)).To(Succeed())
			Expect(mockRepo.actors[head.ID].IsActive).To(BeFalse())
			Expect(departments.releasedActorIDs).To(ConsistOf(head.ID))
		})

		It("should block a head whose department has passes in flight", func() {
			created, err := service.CreateActor(actor.CreateActorDTO{
				Name:       "Rina Kartika",
				Email:      "rina@campus.test",
				Password:   "secret-password",
				Role:       auth.RoleDepartmentHead,
				Department: strPtr("Computer Science"),
			})
			Expect(err).ToNot(HaveOccurred())
			gatePasses.pendingCounts["Computer Science"] = 3

			err = service.DeactivateActor(created.ID)

			Expect(err).To(MatchError(internal.ErrHasDependents))
			Expect(mockRepo.actors[created.ID].IsActive).To(BeTrue())
		})
	})

	Describe("GetNameByID", func() {
		It("should resolve the display name", func() {
			created, err := service.CreateActor(actor.CreateActorDTO{
				Name:     "Agus Pratama",
				Email:    "agus@campus.test",
				Password: "secret-password",
				Role:     auth.RoleGateAttendant,
			})
			Expect(err).ToNot(HaveOccurred())

			name, err := service.GetNameByID(created.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(name).To(Equal("Agus Pratama"))
		})

		It("should return not found for an unknown id", func() {
			_, err := service.GetNameByID(999)

			Expect(err).To(MatchError(internal.ErrActorNotFound))
		})
	})
})
