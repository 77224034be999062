package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error carrying a stable reason code, an HTTP status
// and optional structured context for the caller.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of the error with structured context attached.
func WithDetails(err *Error, details map[string]interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// HasCode reports whether err carries the given reason code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Generic errors shared across modules.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Enrollment and eligibility reason codes. The codes and the Vietnamese
// messages are a wire contract consumed by existing clients; do not rephrase.
var (
	ErrStudentNotFound     = New("STUDENT_NOT_FOUND", http.StatusNotFound, "Hồ sơ sinh viên không tồn tại.")
	ErrClassNotFound       = New("CLASS_NOT_FOUND", http.StatusNotFound, "Lớp học không tồn tại.")
	ErrClassNotOpen        = New("CLASS_NOT_OPEN", http.StatusBadRequest, "Lớp học không mở để đăng ký.")
	ErrClassFull           = New("CLASS_FULL", http.StatusBadRequest, "Lớp học đã đầy.")
	ErrStudentNoDepartment = New("STUDENT_NO_DEPARTMENT", http.StatusBadRequest, "Sinh viên chưa được phân công khoa. Vui lòng liên hệ phòng đào tạo.")
	ErrCourseNoDepartment  = New("COURSE_NO_DEPARTMENT", http.StatusBadRequest, "Khóa học chưa được phân công khoa.")
	ErrDepartmentMismatch  = New("DEPARTMENT_MISMATCH", http.StatusBadRequest, "Bạn chỉ có thể đăng ký các lớp học thuộc khoa của mình.")
	ErrWrongPeriod         = New("WRONG_ACADEMIC_PERIOD", http.StatusBadRequest, "Lớp học không thuộc kỳ học hiện tại.")
	ErrRegistrationClosed  = New("REGISTRATION_CLOSED", http.StatusBadRequest, "Không thể đăng ký vì lớp học đã bắt đầu.")
	ErrAlreadyEnrolled     = New("ALREADY_ENROLLED", http.StatusConflict, "Bạn đã đăng ký lớp học này.")
	ErrCourseResolved      = New("COURSE_COMPLETED", http.StatusConflict, "Bạn đã hoàn thành môn học này.")
	ErrNotEnrolled         = New("NOT_ENROLLED", http.StatusBadRequest, "Bạn chưa đăng ký lớp học này hoặc đăng ký đã bị hủy.")
	ErrGradeAssigned       = New("GRADE_ASSIGNED", http.StatusBadRequest, "Không thể hủy đăng ký vì điểm đã được ghi nhận.")
	ErrCancelNotAllowed    = New("CANCELLATION_NOT_ALLOWED", http.StatusBadRequest, "Không thể hủy đăng ký ở trạng thái lớp hiện tại.")
	ErrCancelExpired       = New("CANCELLATION_PERIOD_EXPIRED", http.StatusBadRequest, "Không thể hủy đăng ký vì đã quá thời hạn hủy.")
)

// Teacher assignment and scheduling reason codes.
var (
	ErrTeacherNotFound     = New("TEACHER_NOT_FOUND", http.StatusNotFound, "Giáo viên không tồn tại.")
	ErrTeacherNoDepartment = New("TEACHER_NO_DEPARTMENT", http.StatusBadRequest, "Giáo viên chưa được phân công khoa. Vui lòng cập nhật thông tin giáo viên.")
	ErrScheduleConflict    = New("SCHEDULE_CONFLICT", http.StatusConflict, "Giáo viên đã có lịch dạy trùng.")
)

// Class lifecycle and grading reason codes.
var (
	ErrCourseNotFound      = New("COURSE_NOT_FOUND", http.StatusNotFound, "Khóa học không tồn tại.")
	ErrEnrollmentNotFound  = New("ENROLLMENT_NOT_FOUND", http.StatusNotFound, "Đăng ký không tồn tại.")
	ErrInvalidScore        = New("INVALID_SCORE", http.StatusBadRequest, "Điểm số phải trong khoảng 0-10.")
	ErrInvalidDates        = New("INVALID_DATES", http.StatusBadRequest, "Ngày bắt đầu phải trước ngày kết thúc.")
	ErrInvalidStartDate    = New("INVALID_START_DATE", http.StatusBadRequest, "Ngày bắt đầu phải sau ngày hiện tại.")
	ErrInvalidCapacity     = New("INVALID_CAPACITY", http.StatusBadRequest, "Sức chứa tối đa phải lớn hơn 0.")
	ErrInvalidSemester     = New("INVALID_SEMESTER", http.StatusBadRequest, "Học kỳ không hợp lệ.")
	ErrInvalidAcademicYear = New("INVALID_ACADEMIC_YEAR", http.StatusBadRequest, "Năm học không hợp lệ. Định dạng: YYYY-YYYY")
	ErrInvalidTransition   = New("INVALID_STATUS_TRANSITION", http.StatusBadRequest, "Không thể chuyển trạng thái lớp học.")
)
