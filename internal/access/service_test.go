// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
)

// # Fakes

type memoryPermissions struct {
	mu      sync.Mutex
	records map[access.Area]access.AreaPermission
	reads   int
	failErr error
}

func newMemoryPermissions(records ...access.AreaPermission) *memoryPermissions {
	repo := &memoryPermissions{records: map[access.Area]access.AreaPermission{}}
	for _, record := range records {
		repo.records[record.Area] = record
	}
	return repo
}

func (m *memoryPermissions) FindByArea(_ context.Context, area access.Area) (*access.AreaPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failErr != nil {
		return nil, m.failErr
	}
	record, ok := m.records[area]
	if !ok {
		return nil, apperr.NotFound("Area permission")
	}
	return &record, nil
}

func (m *memoryPermissions) List(_ context.Context) ([]access.AreaPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]access.AreaPermission, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record)
	}
	return out, nil
}

func (m *memoryPermissions) Upsert(_ context.Context, records []access.AreaPermission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		m.records[record.Area] = record
	}
	return nil
}

func (m *memoryPermissions) InsertMissing(_ context.Context, records []access.AreaPermission) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var inserted int64
	for _, record := range records {
		if _, ok := m.records[record.Area]; !ok {
			m.records[record.Area] = record
			inserted++
		}
	}
	return inserted, nil
}

type staticCatalog map[string]bool

func (c staticCatalog) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range ids {
		if c[id] {
			out[id] = true
		}
	}
	return out, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// # Engine

/*
TestEngine_Grant reads the area record for non-admins only.
*/
func TestEngine_Grant(t *testing.T) {
	repo := newMemoryPermissions(access.AreaPermission{
		Area:    access.AreaSupportCL,
		Modules: []access.Module{access.ModuleDashboard},
	})
	engine := access.NewEngine(repo)
	ctx := context.Background()

	allowed, err := engine.CanAccessModule(ctx, access.Principal{Area: access.AreaSupportCL}, access.ModuleDashboard)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = engine.CanAccessModule(ctx, access.Principal{Area: access.AreaHomeConnect}, access.ModuleDashboard)
	require.NoError(t, err)
	assert.False(t, allowed, "missing record denies")

	readsBefore := repo.reads
	grant, err := engine.Grant(ctx, access.Principal{Area: access.AreaHomeConnect, IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, grant.IsAdmin())
	assert.Equal(t, readsBefore, repo.reads)
}

/*
TestEngine_StoreFailure surfaces the failure instead of granting or denying silently.
*/
func TestEngine_StoreFailure(t *testing.T) {
	repo := newMemoryPermissions()
	repo.failErr = apperr.Upstream("find_area", errors.New("connection reset"))

	_, err := access.NewEngine(repo).Grant(context.Background(), access.Principal{Area: access.AreaSupportCL})
	assert.True(t, apperr.IsCode(err, apperr.CodeUpstream))
}

// # Service

/*
TestService_ListPermissions merges defaults without writing them.
*/
func TestService_ListPermissions(t *testing.T) {
	repo := newMemoryPermissions(access.AreaPermission{Area: access.AreaHomeConnect, ReportIDs: []string{"r1"}})
	service := access.NewService(repo, staticCatalog{}, quietLogger())

	records, err := service.ListPermissions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, len(access.AllAreas()))

	assert.Equal(t, access.AreaDataCommunication, records[0].Area)
	assert.Equal(t, []string{"r1"}, records[1].ReportIDs)
	assert.True(t, records[3].AllAccess)
	assert.Len(t, repo.records, 1, "listing must not create rows")
}

/*
TestService_SavePermissions validates the batch before writing.
*/
func TestService_SavePermissions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		inputs   []access.PermissionInput
		wantCode string
	}{
		{name: "empty batch", inputs: nil, wantCode: apperr.CodeValidation},
		{name: "unknown area", inputs: []access.PermissionInput{{Area: "Financeiro"}}, wantCode: apperr.CodeValidation},
		{name: "unknown module", inputs: []access.PermissionInput{{Area: "Suporte CL", Modules: []string{"billing"}}}, wantCode: apperr.CodeValidation},
		{name: "unknown report", inputs: []access.PermissionInput{{Area: "Suporte CL", ReportIDs: []string{"ghost"}}}, wantCode: apperr.CodeValidation},
		{name: "duplicate area", inputs: []access.PermissionInput{{Area: "Suporte CL"}, {Area: "Suporte CL"}}, wantCode: apperr.CodeValidation},
		{name: "valid", inputs: []access.PermissionInput{{Area: "Suporte CL", Modules: []string{"dashboard"}, ReportIDs: []string{"r1"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryPermissions()
			service := access.NewService(repo, staticCatalog{"r1": true}, quietLogger())

			_, err := service.SavePermissions(ctx, tt.inputs)
			if tt.wantCode != "" {
				assert.True(t, apperr.IsCode(err, tt.wantCode), "got %v", err)
				assert.Empty(t, repo.records)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []access.Module{access.ModuleDashboard}, repo.records[access.AreaSupportCL].Modules)
		})
	}
}

/*
TestService_SaveAllAccessStoresEveryModule keeps the stored list consistent with the flag.
*/
func TestService_SaveAllAccessStoresEveryModule(t *testing.T) {
	repo := newMemoryPermissions()
	service := access.NewService(repo, staticCatalog{}, quietLogger())

	saved, err := service.SavePermissions(context.Background(), []access.PermissionInput{{Area: "Home Connect", AllAccess: true}})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, access.AllModules(), repo.records[access.AreaHomeConnect].Modules)
}

/*
TestService_EnsureDefaults never overwrites an edited row.
*/
func TestService_EnsureDefaults(t *testing.T) {
	edited := access.AreaPermission{Area: access.AreaManagement, AllAccess: false}
	repo := newMemoryPermissions(edited)
	service := access.NewService(repo, staticCatalog{}, quietLogger())

	inserted, err := service.EnsureDefaults(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)
	assert.False(t, repo.records[access.AreaManagement].AllAccess)

	inserted, err = service.EnsureDefaults(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

// # Seed

func TestParseSeed(t *testing.T) {
	records, err := access.ParseSeed([]byte(`
areas:
  - area: "Gerencia"
    modules: [dashboard, powerbi]
    allAccess: true
  - area: "Suporte CL"
    modules: [dashboard]
    reportIds: [r2, r1]
`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].AllAccess)
	assert.Equal(t, []string{"r1", "r2"}, records[1].ReportIDs)

	_, err = access.ParseSeed([]byte("areas:\n  - area: Nowhere\n"))
	assert.Error(t, err)
}

func TestLoadSeed(t *testing.T) {
	records, err := access.LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, access.BuiltinDefaults(), records)

	path := filepath.Join(t.TempDir(), "areas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("areas:\n  - area: Home Connect\n    modules: [powerbi]\n"), 0o600))
	records, err = access.LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, []access.Module{access.ModulePowerBI}, records[0].Modules)
}

// # HTTP

/*
TestHandler_Capabilities reports the grant of the request principal.
*/
func TestHandler_Capabilities(t *testing.T) {
	repo := newMemoryPermissions(access.DefaultPermission(access.AreaManagement))
	handler := access.NewHandler(access.NewEngine(repo), access.NewService(repo, staticCatalog{}, quietLogger()))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/me/capabilities", nil)
	recorder := httptest.NewRecorder()
	handler.Capabilities(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	principal := &access.Principal{UserID: "u", Area: access.AreaManagement}
	request = request.WithContext(access.WithPrincipal(request.Context(), principal))
	recorder = httptest.NewRecorder()
	handler.Capabilities(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data struct {
			Admin     bool     `json:"admin"`
			AllAccess bool     `json:"all_access"`
			Modules   []string `json:"modules"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.False(t, body.Data.Admin)
	assert.True(t, body.Data.AllAccess)
	assert.Equal(t, []string{"dashboard", "powerbi"}, body.Data.Modules)
}

/*
TestHandler_SavePermissions rejects an empty body with field details.
*/
func TestHandler_SavePermissions(t *testing.T) {
	repo := newMemoryPermissions()
	handler := access.NewHandler(access.NewEngine(repo), access.NewService(repo, staticCatalog{}, quietLogger()))
	router := handler.AdminRoutes()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"areas":[]}`)))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = httptest.NewRecorder()
	body := `{"areas":[{"area":"Suporte CL","modules":["powerbi"]}]}`
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []access.Module{access.ModulePowerBI}, repo.records[access.AreaSupportCL].Modules)
}
