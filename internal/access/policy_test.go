// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/access"
)

type report struct {
	id     string
	active bool
}

func (r report) ReportID() string { return r.id }
func (r report) IsActive() bool   { return r.active }

var catalog = []report{
	{id: "r1", active: true},
	{id: "r2", active: true},
	{id: "r3", active: false},
	{id: "r4", active: true},
}

func ids(reports []report) []string {
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.id)
	}
	return out
}

// permissionVariants are records whose lists differ wildly.
func permissionVariants(area access.Area, allAccess bool) []*access.AreaPermission {
	return []*access.AreaPermission{
		{Area: area, AllAccess: allAccess},
		{Area: area, AllAccess: allAccess, Modules: []access.Module{access.ModuleDashboard}, ReportIDs: []string{"r1"}},
		{Area: area, AllAccess: allAccess, Modules: access.AllModules(), ReportIDs: []string{"r1", "r2", "r3", "r4", "ghost"}},
	}
}

/*
TestResolve_AdminSeesEverything holds for any area record, including none.
*/
func TestResolve_AdminSeesEverything(t *testing.T) {
	admin := access.Principal{UserID: "a", Area: access.AreaSupportCL, IsAdmin: true}

	records := append(permissionVariants(access.AreaSupportCL, false), nil)
	for _, record := range records {
		grant := access.Resolve(admin, record)
		for _, module := range access.AllModules() {
			assert.True(t, grant.CanAccessModule(module))
		}
		assert.Equal(t, []string{"r1", "r2", "r4"}, ids(access.VisibleReports(grant, catalog)))
		assert.True(t, grant.IsAdmin())
	}
}

/*
TestResolve_DenyByDefault gives nothing when the area has no record.
*/
func TestResolve_DenyByDefault(t *testing.T) {
	for _, area := range access.AllAreas() {
		principal := access.Principal{UserID: "u", Area: area}
		grant := access.Resolve(principal, nil)

		for _, module := range access.AllModules() {
			assert.False(t, grant.CanAccessModule(module), "area %s module %s", area, module)
		}
		assert.Empty(t, access.VisibleReports(grant, catalog))
		assert.False(t, grant.Configured())
	}
}

/*
TestResolve_RecordForOtherArea is treated as missing.
*/
func TestResolve_RecordForOtherArea(t *testing.T) {
	principal := access.Principal{UserID: "u", Area: access.AreaHomeConnect}
	grant := access.Resolve(principal, &access.AreaPermission{Area: access.AreaManagement, AllAccess: true})

	assert.False(t, grant.CanAccessModule(access.ModuleDashboard))
	assert.Empty(t, access.VisibleReports(grant, catalog))
}

/*
TestResolve_AllAccessIgnoresLists checks list contents have no observable effect.
*/
func TestResolve_AllAccessIgnoresLists(t *testing.T) {
	principal := access.Principal{UserID: "u", Area: access.AreaManagement}

	for _, record := range permissionVariants(access.AreaManagement, true) {
		grant := access.Resolve(principal, record)
		assert.Equal(t, access.AllModules(), grant.Modules())
		assert.Equal(t, []string{"r1", "r2", "r4"}, ids(access.VisibleReports(grant, catalog)))
	}
}

/*
TestResolve_Lists limits modules and reports to the record.
*/
func TestResolve_Lists(t *testing.T) {
	principal := access.Principal{UserID: "u", Area: access.AreaHomeConnect}
	grant := access.Resolve(principal, &access.AreaPermission{
		Area:      access.AreaHomeConnect,
		Modules:   []access.Module{access.ModulePowerBI},
		ReportIDs: []string{"r2", "r3"},
	})

	assert.True(t, grant.CanAccessModule(access.ModulePowerBI))
	assert.False(t, grant.CanAccessModule(access.ModuleDashboard))
	assert.Equal(t, []string{"r2"}, ids(access.VisibleReports(grant, catalog)), "inactive r3 is never served")
}

/*
TestScenario_ManagementAllAccess grants a report missing from the id list.
*/
func TestScenario_ManagementAllAccess(t *testing.T) {
	principal := access.Principal{UserID: "u", Area: access.AreaManagement}
	record := &access.AreaPermission{Area: access.AreaManagement, AllAccess: true, ReportIDs: []string{"r1"}}

	grant := access.Resolve(principal, record)
	assert.True(t, grant.CanViewReport(report{id: "r4", active: true}))
}

func TestParseArea(t *testing.T) {
	decomposed := "Comunicac\u0327a\u0303o de Dados"

	area, err := access.ParseArea(decomposed)
	require.NoError(t, err)
	assert.Equal(t, access.AreaDataCommunication, area)

	area, err = access.ParseArea("  Gerencia ")
	require.NoError(t, err)
	assert.Equal(t, access.AreaManagement, area)

	_, err = access.ParseArea("Financeiro")
	assert.Error(t, err)
}

func TestParseModule(t *testing.T) {
	module, err := access.ParseModule("PowerBI")
	require.NoError(t, err)
	assert.Equal(t, access.ModulePowerBI, module)

	_, err = access.ParseModule("reports")
	assert.Error(t, err)
}

func TestDefaultPermission(t *testing.T) {
	management := access.DefaultPermission(access.AreaManagement)
	assert.True(t, management.AllAccess)
	assert.Equal(t, access.AllModules(), management.Modules)

	support := access.DefaultPermission(access.AreaSupportCL)
	assert.False(t, support.AllAccess)
	assert.Empty(t, support.Modules)
	assert.Len(t, access.BuiltinDefaults(), len(access.AllAreas()))
}
