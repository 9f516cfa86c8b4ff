package validator

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"icx-wallet/pkg/address"
	"icx-wallet/pkg/amount"
)

// Init 在 gin 的校验器上注册 ICON 相关的自定义 tag
func Init() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// Register 注册 icx_address / icx_eoa / icx_amount
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("icx_address", func(fl validator.FieldLevel) bool {
		return address.IsValid(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("icx_eoa", func(fl validator.FieldLevel) bool {
		return address.IsEOA(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("icx_amount", func(fl validator.FieldLevel) bool {
		_, err := amount.ParseDisplay(fl.Field().String())
		return err == nil
	})
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return "请求参数错误: " + err.Error()
	}

	var errMsgs []string
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 不能为空", field))
		case "icx_address", "icx_eoa":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 不是有效的 ICON 地址", field))
		case "icx_amount":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 不是有效的金额", field))
		case "oneof":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 [%s] 之一", field, e.Param()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 至少为 %s", field, e.Param()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("%s 校验失败 (%s)", field, e.Tag()))
		}
	}
	return strings.Join(errMsgs, "; ")
}
