package dto

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
)

// RegisterValidators 向 gin 的校验引擎注册枚举字段规则
// 取值中含空格（如 "Super Important"），无法用 oneof 表达
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}

	rules := map[string]func(string) bool{
		"student_status": model.ValidStudentStatus,
		"task_priority":  model.ValidTaskPriority,
		"task_status":    model.ValidTaskStatus,
	}
	for tag, check := range rules {
		check := check
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			return fmt.Errorf("注册校验规则 %s 失败: %w", tag, err)
		}
	}
	return nil
}
