package gatepass_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/go-chi/chi"

	"github.com/dwiprasetya/gatepass-management/internal/auth"
	"github.com/dwiprasetya/gatepass-management/internal/core/events"
	"github.com/dwiprasetya/gatepass-management/internal/gatepass"
)

type mockImageStore struct {
	stored     []string
	storeError error
}

func (m *mockImageStore) Store(ctx context.Context, file io.Reader, filename string) (string, error) {
	if m.storeError != nil {
		return "", m.storeError
	}
	ref := "img/" + filename
	m.stored = append(m.stored, ref)
	return ref, nil
}

func (m *mockImageStore) Delete(ctx context.Context, ref string) error {
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event events.Event) error { return nil }

func buildSubmitForm(fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		_ = writer.WriteField(name, value)
	}
	for field, filename := range files {
		part, _ := writer.CreateFormFile(field, filename)
		_, _ = part.Write([]byte("fake image bytes"))
	}
	_ = writer.Close()
	return body, writer.FormDataContentType()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func withActor(actor *auth.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithActor(r.Context(), actor)))
		})
	}
}

var _ = Describe("GatePassHandler", func() {
	var (
		handler *gatepass.Handler
		service *gatepass.Service
		repo    *mockGatePassRepository
		images  *mockImageStore
		router  *chi.Mux
	)

	departmentHead := &auth.Actor{
		ID:         10,
		Name:       "Rina Kartika",
		Role:       auth.RoleDepartmentHead,
		Department: strPtr("Computer Science"),
		IsActive:   true,
	}
	gateAttendant := &auth.Actor{
		ID:       30,
		Name:     "Agus Pratama",
		Role:     auth.RoleGateAttendant,
		IsActive: true,
	}

	BeforeEach(func() {
		repo = newMockGatePassRepository()
		images = &mockImageStore{}
		departments := &mockDepartmentDirectory{active: map[string]bool{"Computer Science": true}}
		actors := &mockActorDirectory{names: map[int64]string{10: "Rina Kartika"}}
		service = gatepass.NewService(repo, departments, actors, images, nopPublisher{}, gatepass.SystemClock{}, testLogger())
		handler = gatepass.NewHandler(service, images)

		router = chi.NewRouter()
		router.Post("/gatepass", handler.Submit)
		router.Get("/viewer/{publicId}", handler.PublicLookup)
		router.With(withActor(departmentHead)).Patch("/department/gatepass/{id}/decide", handler.DepartmentDecide)
		router.With(withActor(departmentHead)).Get("/department/gatepass/pending", handler.PendingForDepartment)
		router.With(withActor(gateAttendant)).Post("/gate/confirm-exit", handler.ConfirmExit)
		router.With(withActor(gateAttendant)).Get("/gate/verify", handler.VerifyForGate)
	})

	Describe("Submit", func() {
		It("should store photos and create the pass", func() {
			body, contentType := buildSubmitForm(map[string]string{
				"requester_name":  "Siti Rahma",
				"department_name": "Computer Science",
				"reason":          "family emergency",
			}, map[string]string{
				"evidence_photo": "evidence.jpg",
			})

			req := httptest.NewRequest(http.MethodPost, "/gatepass", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(images.stored).To(ConsistOf("img/evidence.jpg"))

			var created gatepass.GatePass
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
			Expect(created.PublicID).To(HavePrefix("GP"))
			Expect(created.Status).To(Equal(gatepass.StatusPendingDepartment))
		})

		It("should reject a submission without an evidence photo", func() {
			body, contentType := buildSubmitForm(map[string]string{
				"requester_name":  "Siti Rahma",
				"department_name": "Computer Science",
				"reason":          "family emergency",
			}, nil)

			req := httptest.NewRequest(http.MethodPost, "/gatepass", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("evidence photo is required"))
		})

		It("should tie the pass to a logged-in requester", func() {
			student := &auth.Actor{ID: 40, Name: "Siti Rahma", Role: auth.RoleStudent, IsActive: true}
			authed := chi.NewRouter()
			authed.With(withActor(student)).Post("/gatepass", handler.Submit)

			body, contentType := buildSubmitForm(map[string]string{
				"requester_name":  "Siti Rahma",
				"department_name": "Computer Science",
				"reason":          "family emergency",
			}, map[string]string{
				"evidence_photo": "evidence.jpg",
			})

			req := httptest.NewRequest(http.MethodPost, "/gatepass", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			authed.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var created gatepass.GatePass
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
			Expect(created.RequesterActorID).ToNot(BeNil())
			Expect(*created.RequesterActorID).To(Equal(student.ID))
		})

		It("should leave an anonymous pass unlinked", func() {
			body, contentType := buildSubmitForm(map[string]string{
				"requester_name":  "Siti Rahma",
				"department_name": "Computer Science",
				"reason":          "family emergency",
			}, map[string]string{
				"evidence_photo": "evidence.jpg",
			})

			req := httptest.NewRequest(http.MethodPost, "/gatepass", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var created gatepass.GatePass
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
			Expect(created.RequesterActorID).To(BeNil())
		})

		It("should store the companion photo when a companion is named", func() {
			body, contentType := buildSubmitForm(map[string]string{
				"requester_name":  "Siti Rahma",
				"department_name": "Computer Science",
				"reason":          "family emergency",
				"companion_name":  "Budi",
			}, map[string]string{
				"evidence_photo":  "evidence.jpg",
				"companion_photo": "companion.jpg",
			})

			req := httptest.NewRequest(http.MethodPost, "/gatepass", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(images.stored).To(ConsistOf("img/evidence.jpg", "img/companion.jpg"))
		})
	})

	Describe("PublicLookup", func() {
		It("should return the redacted view", func() {
			gp := &gatepass.GatePass{
				ID:               1,
				PublicID:         "GPTEST01",
				RequesterName:    "Siti Rahma",
				DepartmentName:   "Computer Science",
				Reason:           "family emergency",
				EvidencePhotoRef: "img/evidence.jpg",
				Status:           gatepass.StatusPendingDepartment,
			}
			repo.passes[1] = gp
			repo.passesByPublic[gp.PublicID] = gp

			req := httptest.NewRequest(http.MethodGet, "/viewer/GPTEST01", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).NotTo(ContainSubstring("evidence"))
			Expect(w.Body.String()).To(ContainSubstring("GPTEST01"))
		})

		It("should return 404 for an unknown id", func() {
			req := httptest.NewRequest(http.MethodGet, "/viewer/GPNOPE", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("DepartmentDecide", func() {
		BeforeEach(func() {
			gp := &gatepass.GatePass{
				ID:             1,
				PublicID:       "GPTEST01",
				DepartmentName: "Computer Science",
				Status:         gatepass.StatusPendingDepartment,
			}
			repo.passes[1] = gp
			repo.passesByPublic[gp.PublicID] = gp
		})

		It("should record an approval", func() {
			payload := strings.NewReader(`{"action":"approve"}`)
			req := httptest.NewRequest(http.MethodPatch, "/department/gatepass/1/decide", payload)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var updated gatepass.GatePass
			Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
			Expect(updated.Status).To(Equal(gatepass.StatusPendingInstitution))
		})

		It("should return 400 for a malformed id", func() {
			payload := strings.NewReader(`{"action":"approve"}`)
			req := httptest.NewRequest(http.MethodPatch, "/department/gatepass/abc/decide", payload)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 409 when the pass is not pending", func() {
			repo.passes[1].Status = gatepass.StatusApproved
			payload := strings.NewReader(`{"action":"approve"}`)
			req := httptest.NewRequest(http.MethodPatch, "/department/gatepass/1/decide", payload)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("ConfirmExit", func() {
		It("should confirm an approved pass", func() {
			gp := &gatepass.GatePass{
				ID:             2,
				PublicID:       "GPTEST02",
				DepartmentName: "Computer Science",
				Status:         gatepass.StatusApproved,
			}
			repo.passes[2] = gp
			repo.passesByPublic[gp.PublicID] = gp

			payload := strings.NewReader(`{"public_id":"GPTEST02"}`)
			req := httptest.NewRequest(http.MethodPost, "/gate/confirm-exit", payload)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var updated gatepass.GatePass
			Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
			Expect(updated.Status).To(Equal(gatepass.StatusExitConfirmed))
		})

		It("should require a public id", func() {
			payload := strings.NewReader(`{}`)
			req := httptest.NewRequest(http.MethodPost, "/gate/confirm-exit", payload)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("VerifyForGate", func() {
		It("should return the full pass for the attendant", func() {
			gp := &gatepass.GatePass{
				ID:               3,
				PublicID:         "GPTEST03",
				RequesterName:    "Siti Rahma",
				DepartmentName:   "Computer Science",
				EvidencePhotoRef: "img/evidence.jpg",
				Status:           gatepass.StatusApproved,
			}
			repo.passes[3] = gp
			repo.passesByPublic[gp.PublicID] = gp

			req := httptest.NewRequest(http.MethodGet, "/gate/verify?public_id=gptest03", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("GPTEST03"))
			Expect(w.Body.String()).To(ContainSubstring("evidence"))
		})
	})

	Describe("PendingForDepartment", func() {
		It("should list only the head's own queue", func() {
			own := &gatepass.GatePass{ID: 4, PublicID: "GPOWN", DepartmentName: "Computer Science", Status: gatepass.StatusPendingDepartment}
			other := &gatepass.GatePass{ID: 5, PublicID: "GPOTHER", DepartmentName: "Mechanical Engineering", Status: gatepass.StatusPendingDepartment}
			repo.passes[4] = own
			repo.passes[5] = other

			req := httptest.NewRequest(http.MethodGet, "/department/gatepass/pending", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var response gatepass.ListResponse
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.GatePasses).To(HaveLen(1))
			Expect(response.GatePasses[0].PublicID).To(Equal("GPOWN"))
		})
	})
})
