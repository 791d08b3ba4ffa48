package rbac

// Permission is an atomic capability identifier. Permissions are grouped
// informally by naming convention: SYSTEM_*/USER_*/AUDIT_* are administrative,
// COURSE_*/TASK_*/GRADE_* are educational.
type Permission string

const (
	// System management
	PermSystemManage   Permission = "SYSTEM_MANAGE"
	PermBackupManage   Permission = "BACKUP_MANAGE"
	PermSettingsManage Permission = "SETTINGS_MANAGE"
	PermAuditView      Permission = "AUDIT_VIEW"

	// User management
	PermUserManageAll              Permission = "USER_MANAGE_ALL"
	PermStudentManageAll           Permission = "STUDENT_MANAGE_ALL"
	PermTeacherManageAll           Permission = "TEACHER_MANAGE_ALL"
	PermTeacherAssign              Permission = "TEACHER_ASSIGN"
	PermStudentViewAll             Permission = "STUDENT_VIEW_ALL"
	PermStudentManageOwn           Permission = "STUDENT_MANAGE_OWN"
	PermStudentApplicationsManage  Permission = "STUDENT_APPLICATIONS_MANAGE"

	// Course management
	PermCourseManageAll  Permission = "COURSE_MANAGE_ALL"
	PermCourseCreate     Permission = "COURSE_CREATE"
	PermCourseEditAll    Permission = "COURSE_EDIT_ALL"
	PermCourseCreateOwn  Permission = "COURSE_CREATE_OWN"
	PermCourseEditOwn    Permission = "COURSE_EDIT_OWN"
	PermCourseView       Permission = "COURSE_VIEW"
	PermCourseViewPublic Permission = "COURSE_VIEW_PUBLIC"
	PermCourseEnroll     Permission = "COURSE_ENROLL"
	PermScheduleManage   Permission = "SCHEDULE_MANAGE"

	// Tasks and grading
	PermTaskManageOwn  Permission = "TASK_MANAGE_OWN"
	PermTaskSubmit     Permission = "TASK_SUBMIT"
	PermGradeManageOwn Permission = "GRADE_MANAGE_OWN"
	PermGradeViewOwn   Permission = "GRADE_VIEW_OWN"

	// Analytics and reporting
	PermAnalyticsViewAll     Permission = "ANALYTICS_VIEW_ALL"
	PermAnalyticsViewLimited Permission = "ANALYTICS_VIEW_LIMITED"
	PermAnalyticsViewOwn     Permission = "ANALYTICS_VIEW_OWN"
	PermReportsGenerate      Permission = "REPORTS_GENERATE"
	PermReportsView          Permission = "REPORTS_VIEW"
	PermReportsViewOwn       Permission = "REPORTS_VIEW_OWN"
	PermDataExport           Permission = "DATA_EXPORT"
	PermStatisticsView       Permission = "STATISTICS_VIEW"

	// Moderation and communication
	PermContentModerate       Permission = "CONTENT_MODERATE"
	PermCommunicationModerate Permission = "COMMUNICATION_MODERATE"
	PermCommunicationSend     Permission = "COMMUNICATION_SEND"

	// Self service
	PermProfileEditOwn      Permission = "PROFILE_EDIT_OWN"
	PermProgressViewOwn     Permission = "PROGRESS_VIEW_OWN"
	PermSupportProvide      Permission = "SUPPORT_PROVIDE"
	PermRegistrationRequest Permission = "REGISTRATION_REQUEST"
)

// permissionDescriptions maps each permission to a human readable description.
var permissionDescriptions = map[Permission]string{
	PermSystemManage:              "Manage system settings, configuration, and infrastructure",
	PermBackupManage:              "Create and restore system backups",
	PermSettingsManage:            "Modify system settings and configuration",
	PermAuditView:                 "View system audit logs and security events",
	PermUserManageAll:             "Create, edit, delete any user account",
	PermStudentManageAll:          "Manage all student accounts and enrollments",
	PermTeacherManageAll:          "Manage all teacher accounts and assignments",
	PermTeacherAssign:             "Assign teachers to courses",
	PermStudentViewAll:            "View information about all students",
	PermStudentManageOwn:          "Manage students enrolled in own courses",
	PermStudentApplicationsManage: "Process student applications and registrations",
	PermCourseManageAll:           "Create, edit, delete any course",
	PermCourseCreate:              "Create new courses",
	PermCourseEditAll:             "Edit any course in the system",
	PermCourseCreateOwn:           "Create courses that you will teach",
	PermCourseEditOwn:             "Edit only courses that you teach",
	PermCourseView:                "View course details and information",
	PermCourseViewPublic:          "View public course catalog",
	PermCourseEnroll:              "Enroll in available courses",
	PermScheduleManage:            "Create and modify course schedules",
	PermTaskManageOwn:             "Create and manage tasks in own courses",
	PermTaskSubmit:                "Submit task solutions as a student",
	PermGradeManageOwn:            "Grade students in own courses",
	PermGradeViewOwn:              "View own grades",
	PermAnalyticsViewAll:          "View analytics for the whole system",
	PermAnalyticsViewLimited:      "View a limited analytics subset",
	PermAnalyticsViewOwn:          "View analytics for own courses",
	PermReportsGenerate:           "Generate system reports",
	PermReportsView:               "View generated reports",
	PermReportsViewOwn:            "View reports for own courses",
	PermDataExport:                "Export data for external analysis",
	PermStatisticsView:            "View system statistics",
	PermContentModerate:           "Moderate user generated content",
	PermCommunicationModerate:     "Moderate user communication",
	PermCommunicationSend:         "Send announcements and messages",
	PermProfileEditOwn:            "Edit own profile information",
	PermProgressViewOwn:           "View own learning progress",
	PermSupportProvide:            "Provide support to users",
	PermRegistrationRequest:       "Request account registration",
}

// Description returns the human readable description of the permission,
// or the permission name itself when no description is registered.
func (p Permission) Description() string {
	if d, ok := permissionDescriptions[p]; ok {
		return d
	}
	return string(p)
}
