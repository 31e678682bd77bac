package user

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)
