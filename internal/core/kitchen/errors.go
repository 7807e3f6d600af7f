package kitchen

import "errors"

// 工作區拒絕操作時附帶的診斷原因，皆不會以錯誤形式拋出
var (
	ErrNoCookware             = errors.New("no cookware selected")
	ErrStateNotAccepted       = errors.New("cookware does not accept ingredient state")
	ErrUtensilIncompatible    = errors.New("utensil cannot be used with cookware")
	ErrNoApplicableTransition = errors.New("no applicable transition")
	ErrInstanceNotFound       = errors.New("ingredient instance not found")
	ErrUnknownDefinition      = errors.New("unknown catalog definition")
	ErrInvalidDrag            = errors.New("invalid drag payload")
)
