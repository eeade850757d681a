package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/dwiprasetya/gatepass-management/internal/auth"
)

// Mock repository for testing
type mockAuthRepository struct {
	credentials map[string]credentials
	actors      map[int64]*auth.Actor
	getError    error
}

type credentials struct {
	passwordHash string
	actorID      int64
	isActive     bool
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		credentials: make(map[string]credentials),
		actors:      make(map[int64]*auth.Actor),
	}
}

func (m *mockAuthRepository) GetCredentialsByEmail(email string) (string, int64, bool, error) {
	if m.getError != nil {
		return "", 0, false, m.getError
	}
	creds, exists := m.credentials[email]
	if !exists {
		return "", 0, false, errors.New("actor not found")
	}
	return creds.passwordHash, creds.actorID, creds.isActive, nil
}

func (m *mockAuthRepository) GetActorByID(actorID int64) (*auth.Actor, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	actor, exists := m.actors[actorID]
	if !exists {
		return nil, errors.New("actor not found")
	}
	return actor, nil
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		mockRepo *mockAuthRepository
		tokenGen *auth.JWTTokenGenerator
	)

	addActor := func(id int64, email, password, role string, active bool) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		mockRepo.credentials[email] = credentials{
			passwordHash: string(hash),
			actorID:      id,
			isActive:     active,
		}
		mockRepo.actors[id] = &auth.Actor{
			ID:       id,
			Name:     "Test Actor",
			Email:    email,
			Role:     role,
			IsActive: active,
		}
	}

	BeforeEach(func() {
		mockRepo = newMockAuthRepository()
		tokenGen = auth.NewJWTTokenGenerator(
			"test-access-secret-that-is-long-enough",
			"test-refresh-secret-that-is-long-enough",
			15*time.Minute,
			7*24*time.Hour,
		)
		service = auth.NewService(mockRepo, tokenGen)
	})

	Describe("Authenticate", func() {
		Context("with valid credentials", func() {
			It("should return a token pair", func() {
				addActor(1, "rina@campus.test", "secret-password", auth.RoleDepartmentHead, true)

				tokens, err := service.Authenticate(auth.LoginDTO{
					Email:    "rina@campus.test",
					Password: "secret-password",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(tokens.AccessToken).ToNot(BeEmpty())
				Expect(tokens.RefreshToken).ToNot(BeEmpty())
			})

			It("should embed the actor's id and role in the access token", func() {
				addActor(1, "rina@campus.test", "secret-password", auth.RoleDepartmentHead, true)

				tokens, err := service.Authenticate(auth.LoginDTO{
					Email:    "rina@campus.test",
					Password: "secret-password",
				})
				Expect(err).ToNot(HaveOccurred())

				claims, err := service.ValidateAccessToken(tokens.AccessToken)
				Expect(err).ToNot(HaveOccurred())
				Expect(claims.ActorID).To(Equal(strconv.FormatInt(1, 10)))
				Expect(claims.Role).To(Equal(auth.RoleDepartmentHead))
			})
		})

		Context("with a wrong password", func() {
			It("should return invalid credentials", func() {
				addActor(1, "rina@campus.test", "secret-password", auth.RoleDepartmentHead, true)

				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "rina@campus.test",
					Password: "wrong-password",
				})

				Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			})
		})

		Context("with an unknown email", func() {
			It("should return invalid credentials without revealing existence", func() {
				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "nobody@campus.test",
					Password: "whatever",
				})

				Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			})
		})

		Context("with a deactivated account", func() {
			It("should refuse the login", func() {
				addActor(1, "rina@campus.test", "secret-password", auth.RoleDepartmentHead, false)

				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "rina@campus.test",
					Password: "secret-password",
				})

				Expect(err).To(MatchError(auth.ErrActorInactive))
			})
		})

		Context("with missing fields", func() {
			It("should reject an empty email", func() {
				_, err := service.Authenticate(auth.LoginDTO{Password: "secret-password"})
				Expect(err).To(HaveOccurred())
			})

			It("should reject an empty password", func() {
				_, err := service.Authenticate(auth.LoginDTO{Email: "rina@campus.test"})
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("RefreshTokens", func() {
		It("should issue fresh tokens from a valid refresh token", func() {
			addActor(1, "rina@campus.test", "secret-password", auth.RoleDepartmentHead, true)

			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "rina@campus.test",
				Password: "secret-password",
			})
			Expect(err).ToNot(HaveOccurred())

			refreshed, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.AccessToken).ToNot(BeEmpty())
			Expect(refreshed.RefreshToken).ToNot(BeEmpty())
		})

		It("should reject a garbage token", func() {
			_, err := service.RefreshTokens("not-a-jwt")
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})

		It("should reject a refresh for a deactivated actor", func() {
			addActor(1, "rina@campus.test", "secret-password", auth.RoleDepartmentHead, true)

			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "rina@campus.test",
				Password: "secret-password",
			})
			Expect(err).ToNot(HaveOccurred())

			mockRepo.actors[1].IsActive = false

			_, err = service.RefreshTokens(tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrActorInactive))
		})
	})

	Describe("ValidateAccessToken", func() {
		It("should reject an expired token", func() {
			expiredGen := auth.NewJWTTokenGenerator(
				"test-access-secret-that-is-long-enough",
				"test-refresh-secret-that-is-long-enough",
				time.Nanosecond,
				7*24*time.Hour,
			)
			token, err := expiredGen.GenerateAccessToken("1", "rina@campus.test", auth.RoleDepartmentHead)
			Expect(err).ToNot(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			_, err = service.ValidateAccessToken(token)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a token signed with a different secret", func() {
			otherGen := auth.NewJWTTokenGenerator(
				"a-completely-different-access-secret!",
				"a-completely-different-refresh-secret",
				15*time.Minute,
				7*24*time.Hour,
			)
			token, err := otherGen.GenerateAccessToken("1", "rina@campus.test", auth.RoleDepartmentHead)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})

	Describe("HashPassword", func() {
		It("should produce a verifiable bcrypt hash", func() {
			hash, err := service.HashPassword("secret-password")
			Expect(err).ToNot(HaveOccurred())
			Expect(auth.VerifyPassword(hash, "secret-password")).To(Succeed())
			Expect(auth.VerifyPassword(hash, "wrong-password")).ToNot(Succeed())
		})
	})

	Describe("ActorContext", func() {
		It("should round-trip the actor through the request context", func() {
			actor := &auth.Actor{ID: 1, Name: "Rina Kartika", Role: auth.RoleDepartmentHead, IsActive: true}

			ctx := auth.ContextWithActor(context.Background(), actor)
			got, ok := auth.ActorFromContext(ctx)

			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(actor))
		})

		It("should report no actor on an empty context", func() {
			_, ok := auth.ActorFromContext(context.Background())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("OptionalAuth", func() {
		var (
			handler  *auth.Handler
			seenCtx  *auth.Actor
			seenOK   bool
			passthru http.Handler
		)

		BeforeEach(func() {
			handler = auth.NewHandler(service)
			seenCtx = nil
			seenOK = false
			passthru = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenCtx, seenOK = auth.ActorFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
		})

		It("should load the actor for a valid bearer token", func() {
			addActor(1, "rina@campus.test", "secret-password", auth.RoleDepartmentHead, true)
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "rina@campus.test",
				Password: "secret-password",
			})
			Expect(err).ToNot(HaveOccurred())

			req := httptest.NewRequest(http.MethodPost, "/gatepass", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			w := httptest.NewRecorder()

			handler.OptionalAuth(passthru).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(seenOK).To(BeTrue())
			Expect(seenCtx.ID).To(Equal(int64(1)))
		})

		It("should let anonymous requests through without an actor", func() {
			req := httptest.NewRequest(http.MethodPost, "/gatepass", nil)
			w := httptest.NewRecorder()

			handler.OptionalAuth(passthru).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(seenOK).To(BeFalse())
		})

		It("should treat a garbage token as anonymous", func() {
			req := httptest.NewRequest(http.MethodPost, "/gatepass", nil)
			req.Header.Set("Authorization", "Bearer not-a-token")
			w := httptest.NewRecorder()

			handler.OptionalAuth(passthru).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(seenOK).To(BeFalse())
		})
	})
})
