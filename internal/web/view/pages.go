package view

import (
	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
)

// Page names.
const (
	PageHome           = "home"
	PageUniversity     = "university"
	PageNewStudent     = "new_student"
	PageCheckInbox     = "check_inbox"
	PageLogin          = "login"
	PageForgotPassword = "forgot_password"
	PageResetPassword  = "reset_password"
	PageNewTeam        = "new_team"
	PageTeamCreated    = "team_created"
	PageJoin           = "join"
	PageMyProfile      = "my_profile"
	PageLeaveTeam      = "leave_team"
	PageDataExport     = "data_export"
	PageMaintenance    = "maintenance"
)

// UniversityPage is the data of PageUniversity.
type UniversityPage struct {
	Roster        *team.Roster
	MaxMembers    int
	CanCreateTeam bool
}

// CheckInboxPage is the data of PageCheckInbox.
type CheckInboxPage struct {
	University *university.University
	Email      string
	Name       string
}

// TeamCreatedPage is the data of PageTeamCreated.
type TeamCreatedPage struct {
	Team    *team.Team
	JoinURL string
}

// JoinPage is the data of PageJoin.
type JoinPage struct {
	Preview *team.JoinPreview
}

// ProfilePage is the data of PageMyProfile.
type ProfilePage struct {
	Student    *student.Student
	University *university.University
	Team       *team.Team
	Members    []student.Student
	History    []team.JoinEvent
	InviteURL  string
}

// LeavePage is the data of PageLeaveTeam.
type LeavePage struct {
	Team    *team.Team
	Members []student.Student
}

// ExportPage is the data of PageDataExport.
type ExportPage struct {
	Datasets []string
}
