package repos

import (
	"github.com/saehim/attendance-backend/internal/data/repos/attendance"
	"github.com/saehim/attendance-backend/internal/data/repos/org"
)

type AttendanceEventRepo = attendance.AttendanceEventRepo
type StreakAggregateRepo = attendance.StreakAggregateRepo

type OrganizationRepo = org.OrganizationRepo
type MemberRepo = org.MemberRepo
type MemberRoleRepo = org.MemberRoleRepo

var (
	NewAttendanceEventRepo = attendance.NewAttendanceEventRepo
	NewStreakAggregateRepo = attendance.NewStreakAggregateRepo
	NewOrganizationRepo    = org.NewOrganizationRepo
	NewMemberRepo          = org.NewMemberRepo
	NewMemberRoleRepo      = org.NewMemberRoleRepo
)
