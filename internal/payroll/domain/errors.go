package domain

import "errors"

// Run-level validation errors.
var (
	ErrNoDataGroups      = errors.New("at least one data group is required")
	ErrUnknownDataGroup  = errors.New("unknown data group")
	ErrUnknownImportMode = errors.New("unknown import mode")
	ErrMissingPeriod     = errors.New("pay period is required")
)

// Resolution outcomes. These are values, not failures: the resolver reports
// them per identifier so callers can turn them into row-scoped errors.
var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrAmbiguousEmployee = errors.New("multiple employees match")
)

// Operator-facing row messages. These surface in the import UI of a Chinese
// payroll product, so they are written in the operators' language.
const (
	MsgMissingIdentifier   = "缺少员工标识（姓名或身份证号）"
	MsgEmployeeNotFound    = "未找到匹配的员工"
	MsgAmbiguousEmployee   = "存在多名同名员工，无法唯一确定"
	MsgRecordNotFound      = "该员工在此薪资周期没有工资记录（当前模式不允许创建）"
	MsgRecordExists        = "该员工在此薪资周期已有该工资项（CREATE 模式不允许覆盖）"
	MsgUnknownComponent    = "未识别的工资项目"
	MsgUnknownInsuranceKey = "未识别的缴费基数类型"
	MsgInvalidAmount       = "金额格式无效"
	MsgNegativeAmount      = "金额不能为负数"
	MsgInvalidDate         = "日期格式无效"
	MsgMissingCategory     = "缺少人员类别"
	MsgUnknownCategory     = "未识别的人员类别"
	MsgEmptyJobAssignment  = "部门、职位、职级均为空"
	MsgNoValueColumns      = "该行没有任何可导入的数值"
	MsgDefaultedDate       = "生效日期缺失，已使用周期开始日期"
	MsgBackdatedSlice      = "生效日期早于当前记录的生效日期，已按更正处理"
	MsgStoreFailure        = "写入存储失败"
)
