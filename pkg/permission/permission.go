// Package permission 定义角色、能力位与纯函数形式的授权判定。
//
// 主管（supervisor）隐式拥有全部能力；助理（assistant）仅拥有其能力位中为 true 的能力。
// 本包不做任何 I/O，中间件与服务层在其之上做适配。
package permission

import (
	"fmt"
	"strings"
)

// Role 账号角色
type Role string

const (
	RoleSupervisor Role = "supervisor"
	RoleAssistant  Role = "assistant"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	return r == RoleSupervisor || r == RoleAssistant
}

// Capability 能力位
type Capability int

const (
	ViewStudents Capability = iota + 1
	EditStudent
	DeleteStudent
	UploadDocs
	ManageUsers
)

// All 全部能力，按声明顺序
var All = []Capability{ViewStudents, EditStudent, DeleteStudent, UploadDocs, ManageUsers}

// String 返回能力位在存储与令牌中的字段名
func (c Capability) String() string {
	switch c {
	case ViewStudents:
		return "can_view_students"
	case EditStudent:
		return "can_edit_student"
	case DeleteStudent:
		return "can_delete_student"
	case UploadDocs:
		return "can_upload_docs"
	case ManageUsers:
		return "can_manage_users"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Set 五个能力位的快照。字段名与数据库列、令牌声明一致。
type Set struct {
	CanViewStudents  bool `json:"can_view_students"`
	CanEditStudent   bool `json:"can_edit_student"`
	CanDeleteStudent bool `json:"can_delete_student"`
	CanUploadDocs    bool `json:"can_upload_docs"`
	CanManageUsers   bool `json:"can_manage_users"`
}

// DefaultAssistant 新注册助理的默认能力：仅可查看
func DefaultAssistant() Set {
	return Set{CanViewStudents: true}
}

// Full 全部能力
func Full() Set {
	return Set{true, true, true, true, true}
}

// Has 是否设置了指定能力位
func (s Set) Has(c Capability) bool {
	switch c {
	case ViewStudents:
		return s.CanViewStudents
	case EditStudent:
		return s.CanEditStudent
	case DeleteStudent:
		return s.CanDeleteStudent
	case UploadDocs:
		return s.CanUploadDocs
	case ManageUsers:
		return s.CanManageUsers
	default:
		return false
	}
}

// Principal 已认证的调用方
type Principal struct {
	UserID      int64
	Username    string
	Email       string
	Role        Role
	Permissions Set
}

// IsSupervisor 是否为主管
func (p Principal) IsSupervisor() bool {
	return p.Role == RoleSupervisor
}

// Has 主管恒为 true，其余看能力位
func (p Principal) Has(c Capability) bool {
	return p.IsSupervisor() || p.Permissions.Has(c)
}

// DeniedError 授权失败，Missing 列出缺失或所需的能力
type DeniedError struct {
	Missing        []Capability
	Any            bool // true 表示满足 Missing 中任意一个即可
	SupervisorOnly bool
}

func (e *DeniedError) Error() string {
	if e.SupervisorOnly {
		return "supervisor role required"
	}
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = c.String()
	}
	if e.Any {
		return "requires one of: " + strings.Join(names, ", ")
	}
	return "missing permission: " + strings.Join(names, ", ")
}

// Names 缺失能力的字段名列表
func (e *DeniedError) Names() []string {
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = c.String()
	}
	return names
}

// ── 授权判定 ──

// RequireCapability 要求单个能力
func RequireCapability(p Principal, c Capability) error {
	return RequireAll(p, c)
}

// RequireAll 要求全部能力，拒绝时列出全部缺失项
func RequireAll(p Principal, caps ...Capability) error {
	if p.IsSupervisor() {
		return nil
	}
	var missing []Capability
	for _, c := range caps {
		if !p.Permissions.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &DeniedError{Missing: missing}
	}
	return nil
}

// RequireAny 要求任意一个能力，空列表恒拒绝（主管除外）
func RequireAny(p Principal, caps ...Capability) error {
	if p.IsSupervisor() {
		return nil
	}
	for _, c := range caps {
		if p.Permissions.Has(c) {
			return nil
		}
	}
	required := make([]Capability, len(caps))
	copy(required, caps)
	return &DeniedError{Missing: required, Any: true}
}

// RequireSupervisor 仅主管
func RequireSupervisor(p Principal) error {
	if p.IsSupervisor() {
		return nil
	}
	return &DeniedError{SupervisorOnly: true}
}
