// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visits_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/visits"
	"github.com/taibuivan/portal/pkg/pagination"
)

type memoryVisits struct {
	mu     sync.Mutex
	visits []visits.Visit
}

func (m *memoryVisits) Create(_ context.Context, visit *visits.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = append(m.visits, *visit)
	return nil
}

func (m *memoryVisits) ListBySupervisor(_ context.Context, supervisorID string, params pagination.Params) ([]visits.Visit, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var own []visits.Visit
	for _, visit := range m.visits {
		if visit.SupervisorID == supervisorID {
			own = append(own, visit)
		}
	}
	slices.SortStableFunc(own, func(a, b visits.Visit) int { return b.VisitDate.Compare(a.VisitDate) })
	start := min(params.Offset(), len(own))
	end := min(start+params.Limit, len(own))
	return own[start:end], len(own), nil
}

var today = time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)

func newService() (*visits.Service, *memoryVisits) {
	repository := &memoryVisits{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return visits.NewService(repository, logger).WithClock(func() time.Time { return today }), repository
}

func pngSignature() string {
	payload := append([]byte("\x89PNG\r\n\x1a\n"), []byte("IHDR....")...)
	return visits.SignaturePrefix + base64.StdEncoding.EncodeToString(payload)
}

/*
TestCreate covers defaults and each rejected field.
*/
func TestCreate(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	visit, err := service.Create(ctx, "sup-1", visits.Input{Location: " Loja Centro ", Signature: pngSignature()})
	require.NoError(t, err)
	assert.Equal(t, "Loja Centro", visit.Location)
	assert.Equal(t, visits.StatusCompleted, visit.Status)
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), visit.VisitDate)

	visit, err = service.Create(ctx, "sup-1", visits.Input{Location: "Filial", VisitDate: "2026-04-01"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), visit.VisitDate)
	assert.Empty(t, visit.Signature)

	notPNG := visits.SignaturePrefix + base64.StdEncoding.EncodeToString([]byte("GIF89a"))
	tests := []struct {
		name  string
		input visits.Input
	}{
		{"missing location", visits.Input{Location: "  "}},
		{"bad date", visits.Input{Location: "X", VisitDate: "10/04/2026"}},
		{"jpeg data url", visits.Input{Location: "X", Signature: "data:image/jpeg;base64,AAAA"}},
		{"not base64", visits.Input{Location: "X", Signature: visits.SignaturePrefix + "%%%"}},
		{"not a png", visits.Input{Location: "X", Signature: notPNG}},
		{"too large", visits.Input{Location: "X", Signature: visits.SignaturePrefix + strings.Repeat("A", visits.MaxSignatureLength)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, "sup-1", tt.input)
			assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
		})
	}
}

/*
TestHandler_ListOwnVisits never shows another supervisor's visits.
*/
func TestHandler_ListOwnVisits(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	for _, date := range []string{"2026-04-01", "2026-04-03", "2026-04-02"} {
		_, err := service.Create(ctx, "sup-1", visits.Input{Location: "L " + date, VisitDate: date})
		require.NoError(t, err)
	}
	_, err := service.Create(ctx, "sup-2", visits.Input{Location: "Outro"})
	require.NoError(t, err)

	router := visits.NewHandler(service).Routes()
	request := httptest.NewRequest(http.MethodGet, "/?limit=2", nil)
	request = request.WithContext(access.WithPrincipal(request.Context(), &access.Principal{UserID: "sup-1"}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data []visits.Visit  `json:"data"`
		Meta pagination.Meta `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "L 2026-04-03", body.Data[0].Location)
	assert.Equal(t, "L 2026-04-02", body.Data[1].Location)
	assert.Equal(t, 3, body.Meta.Total)
	assert.Equal(t, 2, body.Meta.TotalPages)
}
