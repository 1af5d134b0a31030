package utils

import (
	"context"
	"reflect"

	"github.com/hosteldesk/hostel_backend/config"
)

// check if id exists, scoped to hostel when hostelId > 0, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, hostelId int, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, hostelId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, hostelId int, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, hostelId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, hostelId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return ErrorDuplicateValue
	}
	return nil
}

// count records, using WHERE hostel_id = ? AND $condition
// hostel_id can be zero for admin callers
func ResourceCountWhere[T any](ctx context.Context, hostelId int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
