package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

// UserRepository 账号数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ListAssistants(ctx context.Context, params ListParams) ([]model.User, int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context, role permission.Role) (int64, error)
}

var userSortColumns = sortColumns{
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepo) ListAssistants(ctx context.Context, params ListParams) ([]model.User, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", permission.RoleAssistant)
		if params.Search != "" {
			p := containsPattern(params.Search)
			q = q.Where("(username ILIKE ? OR email ILIKE ?)", p, p)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]model.User, 0)
	err := base().
		Order(userSortColumns.orderBy(params.SortBy, "created_at", params.Asc)).
		Offset(params.Offset).Limit(params.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return affected(r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates))
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{}))
}

func (r *userRepo) CountByRole(ctx context.Context, role permission.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}
