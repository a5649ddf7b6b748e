package domain

// AccountCategory is a Japanese accounting category (勘定科目) assigned to an
// expense receipt.
type AccountCategory string

const (
	CategoryTravel        AccountCategory = "旅費交通費"
	CategoryVehicle       AccountCategory = "車両費"
	CategoryRepairs       AccountCategory = "修繕費"
	CategoryEquipment     AccountCategory = "工具器具備品"
	CategoryWelfare       AccountCategory = "福利厚生費"
	CategorySupplies      AccountCategory = "消耗品費"
	CategoryComms         AccountCategory = "通信費"
	CategoryBooks         AccountCategory = "新聞図書費"
	CategoryTaxesDues     AccountCategory = "租税公課"
	CategoryMeetings      AccountCategory = "会議費"
	CategoryEntertainment AccountCategory = "接待交際費"
	CategoryRent          AccountCategory = "地代家賃"
	CategoryUtilities     AccountCategory = "水道光熱費"
	CategoryAdvertising   AccountCategory = "広告宣伝費"
	CategoryMisc          AccountCategory = "雑費"
)

// AccountCategories lists every category the classifier may assign,
// in the order they appear on journal entry forms.
var AccountCategories = []AccountCategory{
	CategoryTravel,
	CategoryVehicle,
	CategoryRepairs,
	CategoryEquipment,
	CategoryWelfare,
	CategorySupplies,
	CategoryComms,
	CategoryBooks,
	CategoryTaxesDues,
	CategoryMeetings,
	CategoryEntertainment,
	CategoryRent,
	CategoryUtilities,
	CategoryAdvertising,
	CategoryMisc,
}

// Valid reports whether c is one of the known account categories.
func (c AccountCategory) Valid() bool {
	for _, k := range AccountCategories {
		if c == k {
			return true
		}
	}
	return false
}
