package message

import "strconv"

// Code is a three-digit, HTTP-inspired response code.
type Code int

const (
	BasicNotice         Code = 100
	ImportantNotice     Code = 101
	OK                  Code = 200
	Created             Code = 201
	Accepted            Code = 202
	BadRequest          Code = 400
	Unauthorized        Code = 401
	WrongCredentials    Code = 402
	Forbidden           Code = 403
	NotFound            Code = 404
	Conflict            Code = 409
	Gone                Code = 410
	InternalServerError Code = 500
)

func (c Code) leadingDigit() byte {
	s := strconv.Itoa(int(c))
	if len(s) != 3 {
		return 0
	}
	return s[0]
}

// IsSuccess reports whether the leading digit is 1 or 2.
func (c Code) IsSuccess() bool {
	d := c.leadingDigit()
	return d == '1' || d == '2'
}

// IsFailure reports whether the leading digit is 4 or 5.
func (c Code) IsFailure() bool {
	d := c.leadingDigit()
	return d == '4' || d == '5'
}
