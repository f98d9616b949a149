package dto

// CreateInstructorRequest captures POST /instructors payload.
type CreateInstructorRequest struct {
	Code     *string `json:"code"`
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"fullName" validate:"required,min=1,max=200"`
	Category string  `json:"category" validate:"required,oneof=senior junior"`
}

// CreateProjectRequest captures POST /projects payload.
type CreateProjectRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=300"`
	StudentName   string `json:"studentName" validate:"required,min=1,max=200"`
	Kind          string `json:"kind" validate:"required,oneof=interim final"`
	Makeup        bool   `json:"makeup"`
	ResponsibleID string `json:"responsibleId" validate:"required,uuid"`
}

// CreateClassroomRequest captures POST /classrooms payload.
type CreateClassroomRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	Building *string `json:"building"`
	Capacity int     `json:"capacity" validate:"omitempty,min=1,max=1000"`
}

// CreateTimeslotRequest captures POST /timeslots payload. Times are
// wall-clock "15:04" values.
type CreateTimeslotRequest struct {
	Label    string `json:"label" validate:"omitempty,max=100"`
	StartsAt string `json:"startsAt" validate:"required,datetime=15:04"`
	EndsAt   string `json:"endsAt" validate:"required,datetime=15:04"`
}

// UpdateInstructorRequest modifies instructor fields.
type UpdateInstructorRequest struct {
	Code     *string `json:"code"`
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"fullName" validate:"required,min=1,max=200"`
	Category string  `json:"category" validate:"required,oneof=senior junior"`
	Active   *bool   `json:"active"`
}

// UpdateProjectRequest modifies project fields.
type UpdateProjectRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=300"`
	StudentName   string `json:"studentName" validate:"required,min=1,max=200"`
	Kind          string `json:"kind" validate:"required,oneof=interim final"`
	Makeup        bool   `json:"makeup"`
	ResponsibleID string `json:"responsibleId" validate:"required,uuid"`
	Active        *bool  `json:"active"`
}

// UpdateClassroomRequest modifies classroom fields.
type UpdateClassroomRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	Building *string `json:"building"`
	Capacity int     `json:"capacity" validate:"omitempty,min=1,max=1000"`
	Active   *bool   `json:"active"`
}

// UpdateTimeslotRequest modifies timeslot fields.
type UpdateTimeslotRequest struct {
	Label    string `json:"label" validate:"omitempty,max=100"`
	StartsAt string `json:"startsAt" validate:"required,datetime=15:04"`
	EndsAt   string `json:"endsAt" validate:"required,datetime=15:04"`
	Active   *bool  `json:"active"`
}

// ListQuery carries the shared pagination and filter query params.
type ListQuery struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}
