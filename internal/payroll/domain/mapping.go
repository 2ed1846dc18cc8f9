package domain

// Canonical field keys used by the group importers. Source column labels are
// translated to these keys through FieldMapping dictionaries, never inferred
// from the data itself.
const (
	FieldEmployeeCode  = "employee_code"
	FieldFullName      = "full_name"
	FieldIDNumber      = "id_number"
	FieldEffectiveDate = "effective_date"
	FieldCategory      = "category"
	FieldDepartment    = "department"
	FieldPosition      = "position"
	FieldJobRank       = "job_rank"
)

// FieldType tells the parser how to interpret a cell.
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeDecimal FieldType = "decimal"
	FieldTypeDate    FieldType = "date"
)

// FieldMapping binds one source column label to a canonical field. The label
// dictionaries act as the runtime schema of the spreadsheet-shaped source.
type FieldMapping struct {
	Label    string
	Field    string
	Type     FieldType
	Required bool
}

// Dictionary is the label→field mapping set for one data group.
type Dictionary struct {
	Group    DataGroup
	Mappings []FieldMapping
}

// FieldFor returns the canonical field for a source label, if mapped.
func (d Dictionary) FieldFor(label string) (FieldMapping, bool) {
	for _, m := range d.Mappings {
		if m.Label == label {
			return m, true
		}
	}
	return FieldMapping{}, false
}

// LabelFor returns the source label for a canonical field, if mapped.
func (d Dictionary) LabelFor(field string) (string, bool) {
	for _, m := range d.Mappings {
		if m.Field == field {
			return m.Label, true
		}
	}
	return "", false
}

// identifierMappings are shared by every group dictionary.
func identifierMappings() []FieldMapping {
	return []FieldMapping{
		{Label: "员工编号", Field: FieldEmployeeCode, Type: FieldTypeText},
		{Label: "姓名", Field: FieldFullName, Type: FieldTypeText},
		{Label: "员工姓名", Field: FieldFullName, Type: FieldTypeText},
		{Label: "身份证号", Field: FieldIDNumber, Type: FieldTypeText},
	}
}

// DefaultDictionary returns the built-in Chinese label dictionary for a
// group. The template/configuration collaborator can supply replacements;
// these defaults mirror the column vocabulary of the legacy system.
func DefaultDictionary(group DataGroup) Dictionary {
	d := Dictionary{Group: group, Mappings: identifierMappings()}

	switch group {
	case GroupContributionBases:
		d.Mappings = append(d.Mappings,
			FieldMapping{Label: "养老保险缴费基数", Field: InsurancePension, Type: FieldTypeDecimal},
			FieldMapping{Label: "医疗保险缴费基数", Field: InsuranceMedical, Type: FieldTypeDecimal},
			FieldMapping{Label: "失业保险缴费基数", Field: InsuranceUnemployment, Type: FieldTypeDecimal},
			FieldMapping{Label: "住房公积金缴费基数", Field: InsuranceHousingFund, Type: FieldTypeDecimal},
			FieldMapping{Label: "职业年金缴费基数", Field: InsuranceOccupationalPension, Type: FieldTypeDecimal},
			FieldMapping{Label: "社保缴费基数", Field: InsuranceSocial, Type: FieldTypeDecimal},
			FieldMapping{Label: "计税基数", Field: InsuranceTaxBase, Type: FieldTypeDecimal},
			FieldMapping{Label: "生效日期", Field: FieldEffectiveDate, Type: FieldTypeDate},
		)

	case GroupCategoryAssignment:
		d.Mappings = append(d.Mappings,
			FieldMapping{Label: "人员类别", Field: FieldCategory, Type: FieldTypeText, Required: true},
			FieldMapping{Label: "生效日期", Field: FieldEffectiveDate, Type: FieldTypeDate},
		)

	case GroupJobAssignment:
		d.Mappings = append(d.Mappings,
			FieldMapping{Label: "部门名称", Field: FieldDepartment, Type: FieldTypeText},
			FieldMapping{Label: "职位名称", Field: FieldPosition, Type: FieldTypeText},
			FieldMapping{Label: "职级", Field: FieldJobRank, Type: FieldTypeText},
			FieldMapping{Label: "生效日期", Field: FieldEffectiveDate, Type: FieldTypeDate},
		)
	}

	// Earnings carries no fixed value columns: every unmapped label is a
	// candidate pay-component name, resolved against the component catalog.
	return d
}

// IsIdentifierLabel reports whether a label maps to one of the employee
// identifier fields in the dictionary.
func (d Dictionary) IsIdentifierLabel(label string) bool {
	m, ok := d.FieldFor(label)
	if !ok {
		return false
	}
	switch m.Field {
	case FieldEmployeeCode, FieldFullName, FieldIDNumber:
		return true
	}
	return false
}
