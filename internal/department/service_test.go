package department_test

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dwiprasetya/gatepass-management/internal"
	"github.com/dwiprasetya/gatepass-management/internal/actor"
	"github.com/dwiprasetya/gatepass-management/internal/auth"
	"github.com/dwiprasetya/gatepass-management/internal/department"
)

// Mock repository for testing
type mockDepartmentRepository struct {
	departments map[int64]*department.Department
	createError error
	updateError error
	nextID      int64
}

func newMockDepartmentRepository() *mockDepartmentRepository {
	return &mockDepartmentRepository{
		departments: make(map[int64]*department.Department),
		nextID:      1,
	}
}

func (m *mockDepartmentRepository) Create(d *department.Department) error {
	if m.createError != nil {
		return m.createError
	}
	for _, existing := range m.departments {
		if existing.Name == d.Name {
			return internal.ErrDuplicateName
		}
	}
	d.ID = m.nextID
	m.nextID++
	m.departments[d.ID] = d
	return nil
}

func (m *mockDepartmentRepository) GetByID(id int64) (*department.Department, error) {
	d, exists := m.departments[id]
	if !exists {
		return nil, internal.ErrDepartmentNotFound
	}
	return d, nil
}

func (m *mockDepartmentRepository) GetByName(name string) (*department.Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, internal.ErrDepartmentNotFound
}

func (m *mockDepartmentRepository) GetByHeadActorID(actorID int64) (*department.Department, error) {
	for _, d := range m.departments {
		if d.HeadActorID != nil && *d.HeadActorID == actorID {
			return d, nil
		}
	}
	return nil, internal.ErrDepartmentNotFound
}

func (m *mockDepartmentRepository) List(includeInactive bool) ([]*department.Department, error) {
	result := []*department.Department{}
	for _, d := range m.departments {
		if !includeInactive && !d.IsActive {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func (m *mockDepartmentRepository) Update(d *department.Department) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.departments[d.ID] = d
	return nil
}

type mockActorRegistry struct {
	actors         map[int64]*actor.Actor
	departmentSets map[int64]*string
}

func newMockActorRegistry() *mockActorRegistry {
	return &mockActorRegistry{
		actors:         make(map[int64]*actor.Actor),
		departmentSets: make(map[int64]*string),
	}
}

func (m *mockActorRegistry) GetByID(id int64) (*actor.Actor, error) {
	a, exists := m.actors[id]
	if !exists {
		return nil, internal.ErrActorNotFound
	}
	return a, nil
}

func (m *mockActorRegistry) SetDepartment(actorID int64, dept *string, now time.Time) error {
	m.departmentSets[actorID] = dept
	if a, exists := m.actors[actorID]; exists {
		a.Department = dept
	}
	return nil
}

type mockGatePassRegistry struct {
	pendingCounts map[string]int64
	renames       [][2]string
}

func newMockGatePassRegistry() *mockGatePassRegistry {
	return &mockGatePassRegistry{pendingCounts: make(map[string]int64)}
}

func (m *mockGatePassRegistry) CountPendingForDepartment(dept string) (int64, error) {
	return m.pendingCounts[dept], nil
}

func (m *mockGatePassRegistry) RenameDepartment(oldName, newName string, now time.Time) error {
	m.renames = append(m.renames, [2]string{oldName, newName})
	return nil
}

var _ = Describe("DepartmentService", func() {
	var (
		service    *department.Service
		mockRepo   *mockDepartmentRepository
		actors     *mockActorRegistry
		gatePasses *mockGatePassRegistry
		logger     *slog.Logger
	)

	strPtr := func(s string) *string { return &s }

	addDepartment := func(name string, headActorID *int64) *department.Department {
		d := &department.Department{
			Name:        name,
			HeadActorID: headActorID,
			IsActive:    true,
		}
		Expect(mockRepo.Create(d)).NotTo(HaveOccurred())
		return d
	}

	addHead := func(id int64, name string, dept *string, active bool) {
		actors.actors[id] = &actor.Actor{
			ID:         id,
			Name:       name,
			Role:       auth.RoleDepartmentHead,
			Department: dept,
			IsActive:   active,
		}
	}

	BeforeEach(func() {
		mockRepo = newMockDepartmentRepository()
		actors = newMockActorRegistry()
		gatePasses = newMockGatePassRegistry()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = department.NewService(mockRepo, actors, gatePasses, logger)
	})

	Describe("CreateDepartment", func() {
		It("should create an active department", func() {
			d, err := service.CreateDepartment(department.CreateDepartmentDTO{Name: "Computer Science"})

			Expect(err).ToNot(HaveOccurred())
			Expect(d.ID).To(BeNumerically(">", 0))
			Expect(d.IsActive).To(BeTrue())
		})

		It("should reject a duplicate name", func() {
			addDepartment("Computer Science", nil)

			_, err := service.CreateDepartment(department.CreateDepartmentDTO{Name: "Computer Science"})

			Expect(err).To(MatchError(internal.ErrDuplicateName))
		})

		It("should reject an empty name", func() {
			_, err := service.CreateDepartment(department.CreateDepartmentDTO{})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ExistsActive", func() {
		It("should report true for an active department", func() {
			addDepartment("Computer Science", nil)

			active, err := service.ExistsActive("Computer Science")

			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(BeTrue())
		})

		It("should report false for an inactive department", func() {
			d := addDepartment("Computer Science", nil)
			d.IsActive = false

			active, err := service.ExistsActive("Computer Science")

			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(BeFalse())
		})

		It("should report false for an unknown department without erroring", func() {
			active, err := service.ExistsActive("Astrology")

			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(BeFalse())
		})
	})

	Describe("RenameDepartment", func() {
		It("should rename and propagate to gate passes and the head", func() {
			headID := int64(10)
			addHead(headID, "Rina Kartika", strPtr("Computer Science"), true)
			d := addDepartment("Computer Science", &headID)

			renamed, err := service.RenameDepartment(d.ID, department.RenameDepartmentDTO{Name: "Informatics"})

			Expect(err).ToNot(HaveOccurred())
			Expect(renamed.Name).To(Equal("Informatics"))
			Expect(gatePasses.renames).To(HaveLen(1))
			Expect(gatePasses.renames[0]).To(Equal([2]string{"Computer Science", "Informatics"}))
			Expect(actors.departmentSets[headID]).ToNot(BeNil())
			Expect(*actors.departmentSets[headID]).To(Equal("Informatics"))
		})

		It("should be a no-op when the name is unchanged", func() {
			d := addDepartment("Computer Science", nil)

			renamed, err := service.RenameDepartment(d.ID, department.RenameDepartmentDTO{Name: "Computer Science"})

			Expect(err).ToNot(HaveOccurred())
			Expect(renamed.Name).To(Equal("Computer Science"))
			Expect(gatePasses.renames).To(BeEmpty())
		})
	})

	Describe("AssignHead", func() {
		It("should bind an eligible actor to the department", func() {
			addHead(10, "Rina Kartika", nil, true)
			d := addDepartment("Computer Science", nil)

			updated, err := service.AssignHead(d.ID, department.AssignHeadDTO{ActorID: 10})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.HeadActorID).ToNot(BeNil())
			Expect(*updated.HeadActorID).To(Equal(int64(10)))
			Expect(*actors.departmentSets[10]).To(Equal("Computer Science"))
		})

		It("should reject an actor that is not a department head", func() {
			actors.actors[11] = &actor.Actor{ID: 11, Role: auth.RoleStudent, IsActive: true}
			d := addDepartment("Computer Science", nil)

			_, err := service.AssignHead(d.ID, department.AssignHeadDTO{ActorID: 11})

			Expect(err).To(MatchError(internal.ErrActorNotEligible))
		})

		It("should reject a deactivated head", func() {
			addHead(10, "Rina Kartika", nil, false)
			d := addDepartment("Computer Science", nil)

			_, err := service.AssignHead(d.ID, department.AssignHeadDTO{ActorID: 10})

			Expect(err).To(MatchError(internal.ErrActorNotEligible))
		})

		It("should move a head who already leads another department", func() {
			headID := int64(10)
			addHead(headID, "Rina Kartika", strPtr("Mechanical Engineering"), true)
			previous := addDepartment("Mechanical Engineering", &headID)
			target := addDepartment("Computer Science", nil)

			updated, err := service.AssignHead(target.ID, department.AssignHeadDTO{ActorID: headID})

			Expect(err).ToNot(HaveOccurred())
			Expect(*updated.HeadActorID).To(Equal(headID))
			Expect(mockRepo.departments[previous.ID].HeadActorID).To(BeNil())
		})

		It("should release this department's previous head", func() {
			oldHead := int64(10)
			newHead := int64(11)
			addHead(oldHead, "Rina Kartika", strPtr("Computer Science"), true)
			addHead(newHead, "Bayu Santoso", nil, true)
			d := addDepartment("Computer Science", &oldHead)

			updated, err := service.AssignHead(d.ID, department.AssignHeadDTO{ActorID: newHead})

			Expect(err).ToNot(HaveOccurred())
			Expect(*updated.HeadActorID).To(Equal(newHead))
			Expect(actors.departmentSets[oldHead]).To(BeNil())
		})
	})

	Describe("RevokeHead", func() {
		It("should clear the assignment on both sides", func() {
			headID := int64(10)
			addHead(headID, "Rina Kartika", strPtr("Computer Science"), true)
			d := addDepartment("Computer Science", &headID)

			updated, err := service.RevokeHead(d.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.HeadActorID).To(BeNil())
			Expect(actors.departmentSets[headID]).To(BeNil())
		})

		It("should fail when no head is assigned", func() {
			d := addDepartment("Computer Science", nil)

			_, err := service.RevokeHead(d.ID)

			Expect(err).To(MatchError(internal.ErrNoHeadAssigned))
		})
	})

	Describe("DeleteDepartment", func() {
		It("should soft-delete an idle department and release its head", func() {
			headID := int64(10)
			addHead(headID, "Rina Kartika", strPtr("Computer Science"), true)
			d := addDepartment("Computer Science", &headID)

			err := service.DeleteDepartment(d.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.departments[d.ID].IsActive).To(BeFalse())
			Expect(mockRepo.departments[d.ID].HeadActorID).To(BeNil())
			Expect(actors.departmentSets[headID]).To(BeNil())
		})

		It("should refuse when passes are still in flight", func() {
			d := addDepartment("Computer Science", nil)
			gatePasses.pendingCounts["Computer Science"] = 2

			err := service.DeleteDepartment(d.ID)

			Expect(err).To(MatchError(internal.ErrHasPendingGatePasses))
			Expect(mockRepo.departments[d.ID].IsActive).To(BeTrue())
		})
	})
})
