package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

func NewTestRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

func NewTestRequestWithJSON(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func ParseJSONResponse(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("parse response %q: %v", body, err)
	}
	return out
}

func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d (body %s)", want, rr.Code, rr.Body.String())
	}
}

func AssertJSONContains(t *testing.T, body []byte, key string, want any) {
	t.Helper()
	got := ParseJSONResponse(t, body)
	if got[key] != want {
		t.Fatalf("expected %s=%v, got %v", key, want, got[key])
	}
}

func RandomUUID() uuid.UUID {
	return uuid.New()
}

func RandomEmail() string {
	return strings.ToLower(gofakeit.Email())
}

// RandomUsername appends digits so repeated calls in one test do not collide.
func RandomUsername() string {
	return gofakeit.Username() + gofakeit.Numerify("####")
}

func RandomPassword() string {
	return gofakeit.Password(true, true, true, false, false, 12)
}

// NewCreateAccountParams returns valid registration input with random values.
func NewCreateAccountParams() models.CreateAccountParams {
	dob := gofakeit.DateRange(time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)).Truncate(24 * time.Hour)
	return models.CreateAccountParams{
		Username:    RandomUsername(),
		Email:       RandomEmail(),
		Password:    RandomPassword(),
		FirstName:   gofakeit.FirstName(),
		Surname:     gofakeit.LastName(),
		Bio:         gofakeit.Phrase(),
		DateOfBirth: &dob,
	}
}

// NewAccount returns a stored-looking account without a password hash.
func NewAccount() *models.Account {
	params := NewCreateAccountParams()
	now := time.Now().UTC()
	return &models.Account{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		FirstName:    params.FirstName,
		Surname:      params.Surname,
		Bio:          params.Bio,
		DateOfBirth:  params.DateOfBirth,
		JoinedAt:     now,
		LastActiveAt: now,
	}
}

func NewPost(author uuid.UUID, public bool) *models.Post {
	return &models.Post{
		ID:        uuid.New(),
		AuthorID:  author,
		Body:      gofakeit.Phrase(),
		Public:    public,
		CreatedAt: time.Now().UTC(),
	}
}
