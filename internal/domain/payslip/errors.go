package payslip

import "errors"

var ErrNotFound = errors.New("payslip not found")
