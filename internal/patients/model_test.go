package patients

import (
	"testing"
	"time"
)

func TestStatusClosedSet(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Errorf("defined status %q reported invalid", s)
		}
	}
	for _, s := range []Status{"", "waiting", "done", "WAITING_FOR_DOCTOR"} {
		if s.Valid() {
			t.Errorf("status %q should be invalid", s)
		}
	}
}

func TestNextStepValid(t *testing.T) {
	if !NextStepPharmacy.Valid() || !NextStepLab.Valid() {
		t.Fatal("defined next steps reported invalid")
	}
	if NextStep("radiology").Valid() {
		t.Fatal("unknown next step reported valid")
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterPatientRequest
		wantErr bool
	}{
		{"complete", RegisterPatientRequest{Name: "Jane Doe", Date: "2025-04-02", Time: "10:30"}, false},
		{"missing name", RegisterPatientRequest{Date: "2025-04-02", Time: "10:30"}, true},
		{"missing date", RegisterPatientRequest{Name: "Jane Doe", Time: "10:30"}, true},
		{"whitespace time", RegisterPatientRequest{Name: "Jane Doe", Date: "2025-04-02", Time: "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSortByPriorityStable(t *testing.T) {
	list := []*Patient{
		{ID: "a", Status: StatusCompleted},
		{ID: "b", Status: StatusWaitingForDoctor},
		{ID: "c", Status: StatusWaitingForCashier},
		{ID: "d", Status: StatusWaitingForDoctor},
	}
	SortByPriority(list, StatusWaitingForDoctor)

	got := []string{list[0].ID, list[1].ID, list[2].ID, list[3].ID}
	want := []string{"b", "d", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestSortForPharmacy(t *testing.T) {
	early := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2025, 4, 1, 17, 0, 0, 0, time.UTC)
	list := []*Patient{
		{ID: "a", Status: StatusCompleted, DispensedAt: &early},
		{ID: "b", Status: StatusCompleted, DispensedAt: &late},
		{ID: "c", Status: StatusWaitingForPharmacy},
	}
	SortForPharmacy(list)

	if list[0].ID != "c" {
		t.Fatalf("expected pending patient first, got %s", list[0].ID)
	}
	if list[1].ID != "b" || list[2].ID != "a" {
		t.Fatalf("expected completed patients newest-dispensed first, got %s, %s", list[1].ID, list[2].ID)
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now().UTC()
	p := &Patient{ID: "a", Status: StatusCompleted, DispensedAt: &now}
	cp := p.Clone()
	*cp.DispensedAt = now.Add(time.Hour)
	if !p.DispensedAt.Equal(now) {
		t.Fatal("clone shares timestamp storage with original")
	}
}
