package repository

import "errors"

var ErrNotFound = errors.New("not found")

// 条件付き更新で在庫が足りなかった
var ErrInsufficientStock = errors.New("insufficient stock")

// 一意制約違反（SKU・名前の重複など）
var ErrConflict = errors.New("conflict")
