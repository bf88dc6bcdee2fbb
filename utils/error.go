package utils

import "errors"

// ErrorRecordNotFound hides the storage layer's not-found error from
// handlers; they map it to a 404 without importing gorm.
var ErrorRecordNotFound = errors.New("record not found")
