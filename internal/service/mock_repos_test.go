package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

// ── 共享内存数据 ──

// mockData 五个 mock 仓储共用的表，便于模拟联表查询
// failOn 按 "Repo.Method" 注入错误
type mockData struct {
	nextID   int64
	users    map[int64]*model.User
	students map[int64]*model.Student
	docs     map[int64]*model.Document
	tasks    map[int64]*model.Task
	activity []model.ActivityLog
	failOn   map[string]error
	// hooks 在对应 "Repo.Method" 执行前调用，用于模拟并发写入
	hooks map[string]func()
}

func newMockData() *mockData {
	return &mockData{
		users:    make(map[int64]*model.User),
		students: make(map[int64]*model.Student),
		docs:     make(map[int64]*model.Document),
		tasks:    make(map[int64]*model.Task),
		failOn:   make(map[string]error),
		hooks:    make(map[string]func()),
	}
}

func (d *mockData) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *mockData) fail(op string) error {
	if hook := d.hooks[op]; hook != nil {
		hook()
	}
	return d.failOn[op]
}

func (d *mockData) username(id *int64) *string {
	if id == nil {
		return nil
	}
	if u, ok := d.users[*id]; ok {
		name := u.Username
		return &name
	}
	return nil
}

func newMockRepository() (*repository.Repository, *mockData) {
	d := newMockData()
	return &repository.Repository{
		User:     &mockUserRepo{d},
		Student:  &mockStudentRepo{d},
		Document: &mockDocumentRepo{d},
		Task:     &mockTaskRepo{d},
		Activity: &mockActivityRepo{d},
	}, d
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func page[T any](all []T, offset, limit int) []T {
	if limit <= 0 {
		return all
	}
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// ── Mock UserRepository ──

type mockUserRepo struct{ d *mockData }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if err := m.d.fail("User.Create"); err != nil {
		return err
	}
	for _, u := range m.d.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
		}
	}
	user.ID = m.d.id()
	user.CreatedAt = time.Now()
	cp := *user
	m.d.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := m.d.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.d.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, u := range m.d.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) ListAssistants(_ context.Context, params repository.ListParams) ([]model.User, int64, error) {
	all := make([]model.User, 0)
	for _, u := range m.d.users {
		if u.Role != permission.RoleAssistant {
			continue
		}
		if params.Search != "" && !containsFold(u.Username, params.Search) && !containsFold(u.Email, params.Search) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return page(all, params.Offset, params.Limit), int64(len(all)), nil
}

func (m *mockUserRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	if err := m.d.fail("User.Update"); err != nil {
		return err
	}
	u, ok := m.d.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "password_hash":
			u.PasswordHash = v.(string)
		case "can_view_students":
			u.CanViewStudents = v.(bool)
		case "can_edit_student":
			u.CanEditStudent = v.(bool)
		case "can_delete_student":
			u.CanDeleteStudent = v.(bool)
		case "can_upload_docs":
			u.CanUploadDocs = v.(bool)
		case "can_manage_users":
			u.CanManageUsers = v.(bool)
		default:
			return fmt.Errorf("mock: 未知列 %s", k)
		}
	}
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	if err := m.d.fail("User.Delete"); err != nil {
		return err
	}
	if _, ok := m.d.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.d.users, id)
	return nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role permission.Role) (int64, error) {
	var n int64
	for _, u := range m.d.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct{ d *mockData }

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if err := m.d.fail("Student.Create"); err != nil {
		return err
	}
	student.ID = m.d.id()
	student.CreatedAt = time.Now()
	student.UpdatedAt = student.CreatedAt
	cp := *student
	m.d.students[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id int64) (*model.Student, error) {
	if s, ok := m.d.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, s := range m.d.students {
		if s.Email == email && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) List(_ context.Context, params repository.ListParams) ([]model.Student, int64, error) {
	all := make([]model.Student, 0)
	for _, s := range m.d.students {
		if params.Search != "" {
			dept := ""
			if s.Department != nil {
				dept = *s.Department
			}
			if !containsFold(s.Name, params.Search) && !containsFold(s.Email, params.Search) && !containsFold(dept, params.Search) {
				continue
			}
		}
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return page(all, params.Offset, params.Limit), int64(len(all)), nil
}

func (m *mockStudentRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	if err := m.d.fail("Student.Update"); err != nil {
		return err
	}
	s, ok := m.d.students[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			s.Name = v.(string)
		case "email":
			s.Email = v.(string)
		case "department":
			s.Department = v.(*string)
		case "status":
			s.Status = v.(string)
		case "gpa":
			s.GPA = v.(*float64)
		case "assigned_tasks":
			s.AssignedTasks = v.(*string)
		default:
			return fmt.Errorf("mock: 未知列 %s", k)
		}
	}
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id int64) error {
	if err := m.d.fail("Student.Delete"); err != nil {
		return err
	}
	if _, ok := m.d.students[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.d.students, id)
	return nil
}

func (m *mockStudentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.d.students)), nil
}

func (m *mockStudentRepo) CountByStatus(_ context.Context) ([]model.StatusCount, error) {
	counts := make(map[string]int64)
	for _, s := range m.d.students {
		counts[s.Status]++
	}
	result := make([]model.StatusCount, 0, len(counts))
	for _, status := range model.StudentStatuses {
		if n, ok := counts[status]; ok {
			result = append(result, model.StatusCount{Status: status, Count: n})
		}
	}
	return result, nil
}

// ── Mock DocumentRepository ──

type mockDocumentRepo struct{ d *mockData }

func (m *mockDocumentRepo) detail(doc *model.Document) model.DocumentDetail {
	out := model.DocumentDetail{Document: *doc, UploadedByName: m.d.username(doc.UploadedBy)}
	if s, ok := m.d.students[doc.StudentID]; ok {
		out.StudentName = s.Name
	}
	return out
}

func (m *mockDocumentRepo) CreateBatch(_ context.Context, docs []model.Document) error {
	if err := m.d.fail("Document.CreateBatch"); err != nil {
		return err
	}
	for i := range docs {
		docs[i].ID = m.d.id()
		cp := docs[i]
		m.d.docs[cp.ID] = &cp
	}
	return nil
}

func (m *mockDocumentRepo) GetByID(_ context.Context, id int64) (*model.DocumentDetail, error) {
	if doc, ok := m.d.docs[id]; ok {
		out := m.detail(doc)
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentRepo) List(_ context.Context, params repository.ListParams) ([]model.DocumentDetail, int64, error) {
	all := make([]model.DocumentDetail, 0)
	for _, doc := range m.d.docs {
		dd := m.detail(doc)
		if params.Search != "" && !containsFold(dd.StudentName, params.Search) && !containsFold(dd.OriginalFilename, params.Search) {
			continue
		}
		all = append(all, dd)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return page(all, params.Offset, params.Limit), int64(len(all)), nil
}

func (m *mockDocumentRepo) ListByStudent(_ context.Context, studentID int64) ([]model.DocumentDetail, error) {
	all := make([]model.DocumentDetail, 0)
	for _, doc := range m.d.docs {
		if doc.StudentID == studentID {
			all = append(all, m.detail(doc))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all, nil
}

func (m *mockDocumentRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	if err := m.d.fail("Document.Update"); err != nil {
		return err
	}
	doc, ok := m.d.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "original_filename":
			doc.OriginalFilename = v.(string)
		case "stored_filename":
			doc.StoredFilename = v.(string)
		case "file_path":
			doc.FilePath = v.(string)
		case "file_size":
			doc.FileSize = v.(int64)
		case "upload_date":
			doc.UploadDate = v.(time.Time)
		case "uploaded_by":
			by := v.(int64)
			doc.UploadedBy = &by
		default:
			return fmt.Errorf("mock: 未知列 %s", k)
		}
	}
	return nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, id int64) error {
	if err := m.d.fail("Document.Delete"); err != nil {
		return err
	}
	if _, ok := m.d.docs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.d.docs, id)
	return nil
}

func (m *mockDocumentRepo) DeleteByStudent(_ context.Context, studentID int64) ([]string, error) {
	if err := m.d.fail("Document.DeleteByStudent"); err != nil {
		return nil, err
	}
	var names []string
	for id, doc := range m.d.docs {
		if doc.StudentID == studentID {
			names = append(names, doc.StoredFilename)
			delete(m.d.docs, id)
		}
	}
	return names, nil
}

func (m *mockDocumentRepo) DetachUploader(_ context.Context, userID int64) error {
	for _, doc := range m.d.docs {
		if doc.UploadedBy != nil && *doc.UploadedBy == userID {
			doc.UploadedBy = nil
		}
	}
	return nil
}

func (m *mockDocumentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.d.docs)), nil
}

func (m *mockDocumentRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, doc := range m.d.docs {
		if !doc.UploadDate.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *mockDocumentRepo) Recent(_ context.Context, limit int) ([]model.RecentUpload, error) {
	all := make([]model.RecentUpload, 0)
	for _, doc := range m.d.docs {
		dd := m.detail(doc)
		name := dd.StudentName
		all = append(all, model.RecentUpload{
			ID:               doc.ID,
			OriginalFilename: doc.OriginalFilename,
			UploadDate:       doc.UploadDate,
			StudentName:      &name,
			UploadedByName:   dd.UploadedByName,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UploadDate.After(all[j].UploadDate) })
	return page(all, 0, limit), nil
}

// ── Mock TaskRepository ──

type mockTaskRepo struct{ d *mockData }

func (m *mockTaskRepo) detail(task *model.Task) model.TaskDetail {
	out := model.TaskDetail{Task: *task, CreatedByName: m.d.username(task.CreatedBy)}
	if s, ok := m.d.students[task.StudentID]; ok {
		out.StudentName = s.Name
	}
	return out
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	if err := m.d.fail("Task.Create"); err != nil {
		return err
	}
	task.ID = m.d.id()
	task.CreatedAt = time.Now()
	cp := *task
	m.d.tasks[task.ID] = &cp
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id int64) (*model.TaskDetail, error) {
	if task, ok := m.d.tasks[id]; ok {
		out := m.detail(task)
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// List 仅实现默认排序（优先级名次，再按 ID 倒序）
func (m *mockTaskRepo) List(_ context.Context, filter repository.TaskFilter) ([]model.TaskDetail, int64, error) {
	all := make([]model.TaskDetail, 0)
	for _, task := range m.d.tasks {
		if filter.StudentID > 0 && task.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		all = append(all, m.detail(task))
	}
	sort.Slice(all, func(i, j int) bool {
		ri, rj := model.PriorityRank(all[i].Priority), model.PriorityRank(all[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return all[i].ID > all[j].ID
	})
	return page(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func (m *mockTaskRepo) ListByStudent(ctx context.Context, studentID int64) ([]model.TaskDetail, error) {
	tasks, _, err := m.List(ctx, repository.TaskFilter{StudentID: studentID})
	return tasks, err
}

func (m *mockTaskRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	if err := m.d.fail("Task.Update"); err != nil {
		return err
	}
	task, ok := m.d.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "title":
			task.Title = v.(string)
		case "description":
			task.Description = v.(*string)
		case "priority":
			task.Priority = v.(string)
		case "status":
			task.Status = v.(string)
		case "due_date":
			task.DueDate = v.(*time.Time)
		default:
			return fmt.Errorf("mock: 未知列 %s", k)
		}
	}
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.d.tasks[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.d.tasks, id)
	return nil
}

func (m *mockTaskRepo) DeleteByStudent(_ context.Context, studentID int64) error {
	if err := m.d.fail("Task.DeleteByStudent"); err != nil {
		return err
	}
	for id, task := range m.d.tasks {
		if task.StudentID == studentID {
			delete(m.d.tasks, id)
		}
	}
	return nil
}

func (m *mockTaskRepo) DetachCreator(_ context.Context, userID int64) error {
	for _, task := range m.d.tasks {
		if task.CreatedBy != nil && *task.CreatedBy == userID {
			task.CreatedBy = nil
		}
	}
	return nil
}

func (m *mockTaskRepo) Stats(_ context.Context) (*model.TaskStats, error) {
	var stats model.TaskStats
	for _, task := range m.d.tasks {
		stats.Total++
		if model.PriorityRank(task.Priority) <= model.PriorityRank(model.PriorityHigh) {
			stats.HighPriority++
		}
		if task.Status == model.TaskStatusPending {
			stats.Pending++
		}
	}
	return &stats, nil
}

// ── Mock ActivityRepository ──

type mockActivityRepo struct{ d *mockData }

func (m *mockActivityRepo) Create(_ context.Context, entry *model.ActivityLog) error {
	if err := m.d.fail("Activity.Create"); err != nil {
		return err
	}
	entry.ID = m.d.id()
	m.d.activity = append(m.d.activity, *entry)
	return nil
}

func (m *mockActivityRepo) details(match func(model.ActivityLog) bool) []model.ActivityLogDetail {
	out := make([]model.ActivityLogDetail, 0)
	for i := len(m.d.activity) - 1; i >= 0; i-- {
		e := m.d.activity[i]
		if !match(e) {
			continue
		}
		dd := model.ActivityLogDetail{ActivityLog: e}
		if u, ok := m.d.users[e.UserID]; ok {
			dd.Username = u.Username
			dd.Role = string(u.Role)
		}
		out = append(out, dd)
	}
	return out
}

func (m *mockActivityRepo) ListRecent(_ context.Context, limit, offset int) ([]model.ActivityLogDetail, int64, error) {
	all := m.details(func(model.ActivityLog) bool { return true })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockActivityRepo) ListForEntity(_ context.Context, entityType string, entityID int64, limit int) ([]model.ActivityLogDetail, error) {
	all := m.details(func(e model.ActivityLog) bool {
		return e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID
	})
	return page(all, 0, limit), nil
}

func (m *mockActivityRepo) DeleteByUser(_ context.Context, userID int64) error {
	kept := m.d.activity[:0]
	for _, e := range m.d.activity {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	m.d.activity = kept
	return nil
}

// ── 测试辅助 ──

var testLogger = zap.NewNop()

func supervisorPrincipal(d *mockData) permission.Principal {
	for _, u := range d.users {
		if u.IsSupervisor() {
			return u.Principal()
		}
	}
	u := &model.User{
		ID:       d.id(),
		Username: "admin",
		Email:    "admin@example.com",
		Role:     permission.RoleSupervisor,
		Set:      permission.Full(),
	}
	d.users[u.ID] = u
	return u.Principal()
}

func seedStudent(d *mockData, name, email string) *model.Student {
	s := &model.Student{ID: d.id(), Name: name, Email: email, Status: model.StudentStatusActive}
	d.students[s.ID] = s
	return s
}

func lastActivity(d *mockData) *model.ActivityLog {
	if len(d.activity) == 0 {
		return nil
	}
	e := d.activity[len(d.activity)-1]
	return &e
}
