package domain

import (
	"campus-chat/errors"
	"fmt"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleTeacher      Role = "teacher"
	RoleStudent      Role = "student"
	RoleReceptionist Role = "receptionist"
	RoleShopkeeper   Role = "shopkeeper"
	RoleExaminer     Role = "examiner"
	RoleAccounting   Role = "accounting"
	RoleResearcher   Role = "researcher"
)

type NavigationItem struct {
	Label string
	Path  string
}

// Dashboard is the per-role portal entry point.
// Adding a role means adding a type and a line in dashboards, nothing else.
type Dashboard interface {
	Role() Role
	NavigationItems() []NavigationItem
}

var messagesItem = NavigationItem{Label: "Messages", Path: "/messages"}

var dashboards = map[Role]Dashboard{
	RoleAdmin:        AdminDashboard{},
	RoleTeacher:      TeacherDashboard{},
	RoleStudent:      StudentDashboard{},
	RoleReceptionist: ReceptionistDashboard{},
	RoleShopkeeper:   ShopkeeperDashboard{},
	RoleExaminer:     ExaminerDashboard{},
	RoleAccounting:   AccountingDashboard{},
	RoleResearcher:   ResearcherDashboard{},
}

func DashboardFor(role Role) (Dashboard, error) {
	d, ok := dashboards[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownRole, role)
	}
	return d, nil
}

type AdminDashboard struct{}

func (AdminDashboard) Role() Role { return RoleAdmin }

func (AdminDashboard) NavigationItems() []NavigationItem {
	return []NavigationItem{
		{Label: "Users", Path: "/admin/users"},
		{Label: "Notices", Path: "/admin/notices"},
		{Label: "Fees", Path: "/admin/fees"},
		messagesItem,
	}
}

type TeacherDashboard struct{}

func (TeacherDashboard) Role() Role { return RoleTeacher }

func (TeacherDashboard) NavigationItems() []NavigationItem {
	return []NavigationItem{
		{Label: "Classes", Path: "/teacher/classes"},
		{Label: "Attendance", Path: "/teacher/attendance"},
		{Label: "Marks", Path: "/teacher/marks"},
		messagesItem,
	}
}

type StudentDashboard struct{}

func (StudentDashboard) Role() Role { return RoleStudent }

func (StudentDashboard) NavigationItems() []NavigationItem {
	return []NavigationItem{
		{Label: "Timetable", Path: "/student/timetable"},
		{Label: "Results", Path: "/student/results"},
		{Label: "Fees", Path: "/student/fees"},
		messagesItem,
	}
}

type ReceptionistDashboard struct{}

func (ReceptionistDashboard) Role() Role { return RoleReceptionist }

func (ReceptionistDashboard) NavigationItems() []NavigationItem {
	return []NavigationItem{
		{Label: "Visitors", Path: "/reception/visitors"},
		{Label: "Admissions", Path: "/reception/admissions"},
		messagesItem,
	}
}

type ShopkeeperDashboard struct{}

func (ShopkeeperDashboard) Role() Role { return RoleShopkeeper }

func (ShopkeeperDashboard) NavigationItems() []NavigationItem {
	return []NavigationItem{
		{Label: "Inventory", Path: "/shop/inventory"},
		{Label: "Orders", Path: "/shop/orders"},
		messagesItem,
	}
}

type ExaminerDashboard struct{}

func (ExaminerDashboard) Role() Role { return RoleExaminer }

func (ExaminerDashboard) NavigationItems() []NavigationItem {
	return []NavigationItem{
		{Label: "Exams", Path: "/examiner/exams"},
		{Label: "Grading", Path: "/examiner/grading"},
		messagesItem,
	}
}

type AccountingDashboard struct{}

func (AccountingDashboard) Role() Role { return RoleAccounting }

func (AccountingDashboard) NavigationItems() []NavigationItem {
	return []NavigationItem{
		{Label: "Ledger", Path: "/accounting/ledger"},
		{Label: "Fees", Path: "/accounting/fees"},
		{Label: "Payroll", Path: "/accounting/payroll"},
		messagesItem,
	}
}

type ResearcherDashboard struct{}

func (ResearcherDashboard) Role() Role { return RoleResearcher }

func (ResearcherDashboard) NavigationItems() []NavigationItem {
	return []NavigationItem{
		{Label: "Projects", Path: "/research/projects"},
		{Label: "Publications", Path: "/research/publications"},
		messagesItem,
	}
}
