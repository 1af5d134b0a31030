package models_test

import (
	"testing"

	"github.com/hosteldesk/hostel_backend/models"
)

func TestResolveHostelScopeList(t *testing.T) {
	admin := adminContext()
	operator := operatorContext(7)

	t.Run("admin empty means all hostels", func(t *testing.T) {
		ids, err := models.ResolveHostelScopeList(admin, nil)
		if err != nil {
			t.Fatalf("ResolveHostelScopeList(admin, nil): %v", err)
		}
		if len(ids) != 0 {
			t.Fatalf("ids = %v; want empty", ids)
		}
	})

	t.Run("admin ids pass through", func(t *testing.T) {
		ids, err := models.ResolveHostelScopeList(admin, []int{3, 9})
		if err != nil {
			t.Fatalf("ResolveHostelScopeList(admin, [3 9]): %v", err)
		}
		if len(ids) != 2 || ids[0] != 3 || ids[1] != 9 {
			t.Fatalf("ids = %v; want [3 9]", ids)
		}
	})

	t.Run("operator empty resolves to bound hostel", func(t *testing.T) {
		ids, err := models.ResolveHostelScopeList(operator, nil)
		if err != nil {
			t.Fatalf("ResolveHostelScopeList(operator, nil): %v", err)
		}
		if len(ids) != 1 || ids[0] != 7 {
			t.Fatalf("ids = %v; want [7]", ids)
		}
	})

	t.Run("operator own hostel is allowed", func(t *testing.T) {
		ids, err := models.ResolveHostelScopeList(operator, []int{7})
		if err != nil {
			t.Fatalf("ResolveHostelScopeList(operator, [7]): %v", err)
		}
		if len(ids) != 1 || ids[0] != 7 {
			t.Fatalf("ids = %v; want [7]", ids)
		}
	})

	t.Run("operator foreign hostel is rejected", func(t *testing.T) {
		_, err := models.ResolveHostelScopeList(operator, []int{8})
		if !models.IsAuthorization(err) {
			t.Fatalf("err = %v; want authorization error", err)
		}
	})

	t.Run("operator mixed list is rejected", func(t *testing.T) {
		_, err := models.ResolveHostelScopeList(operator, []int{7, 8})
		if !models.IsAuthorization(err) {
			t.Fatalf("err = %v; want authorization error", err)
		}
	})
}
