package canonical

// Domain домен канонического справочника
type Domain string

const (
	DomainTeam     Domain = "team"
	DomainBuilding Domain = "building"
)

// Entity каноническая сущность справочника: код + отображаемое имя
type Entity struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Dictionaries набор канонических справочников и таблиц синонимов.
// Справочники неизменяемы после создания: обновление словаря — это новый деплой,
// а не runtime-мутация. Передаются в резолвер явно, без глобального состояния.
type Dictionaries struct {
	Teams            map[string]Entity
	TeamSynonyms     map[string]string
	Buildings        map[string]Entity
	BuildingSynonyms map[string]string
}

// DefaultDictionaries возвращает штатный набор справочников команд и зданий
func DefaultDictionaries() *Dictionaries {
	return &Dictionaries{
		Teams:            teams,
		TeamSynonyms:     teamSynonyms,
		Buildings:        buildings,
		BuildingSynonyms: buildingSynonyms,
	}
}

var teams = map[string]Entity{
	"INFRA": {Code: "INFRA", Name: "Infrastructure"},
	"APPS":  {Code: "APPS", Name: "Applications"},
	"DEV":   {Code: "DEV", Name: "Developers"},
	"AV":    {Code: "AV", Name: "AV"},
}

// teamSynonyms таблица синонимов команд: нижний регистр → канонический код
var teamSynonyms = map[string]string{
	"infra":          "INFRA",
	"infrastructure": "INFRA",
	"apps":           "APPS",
	"applications":   "APPS",
	"dev":            "DEV",
	"developers":     "DEV",
	"audiovisual":    "AV",
	"av":             "AV",
}

var buildings = map[string]Entity{
	"CN":   {Code: "CN", Name: "Chinn Elementary"},
	"EL":   {Code: "EL", Name: "English Landing Elementary"},
	"GR":   {Code: "GR", Name: "Graden Elementary"},
	"HW":   {Code: "HW", Name: "Hawthorn Elementary"},
	"HP":   {Code: "HP", Name: "Hopewell Elementary"},
	"LC":   {Code: "LC", Name: "Line Creek Elementary"},
	"PP":   {Code: "PP", Name: "Prairie Point Elementary"},
	"RN":   {Code: "RN", Name: "Renner Elementary"},
	"SE":   {Code: "SE", Name: "Southeast Elementary"},
	"TR":   {Code: "TR", Name: "Tiffany Ridge Elementary"},
	"UC":   {Code: "UC", Name: "Union Chapel Elementary"},
	"CG":   {Code: "CG", Name: "Congress Middle School"},
	"LV":   {Code: "LV", Name: "Lakeview Middle School"},
	"PL":   {Code: "PL", Name: "Plaza Middle School"},
	"WL":   {Code: "WL", Name: "Walden Middle School"},
	"LD":   {Code: "LD", Name: "LEAD Innovation Studio"},
	"PHHS": {Code: "PHHS", Name: "Park Hill High School"},
	"PHS":  {Code: "PHS", Name: "Park Hill South High School"},
	"AQ":   {Code: "AQ", Name: "Aquatic Center"},
}

// buildingSynonyms таблица синонимов зданий: нижний регистр → канонический код
var buildingSynonyms = map[string]string{
	"chinn":           "CN",
	"english landing": "EL",
	"graden":          "GR",
	"hawthorn":        "HW",
	"hopewell":        "HP",
	"line creek":      "LC",
	"prairie point":   "PP",
	"renner":          "RN",
	"southeast":       "SE",
	"tiffany ridge":   "TR",
	"union chapel":    "UC",
	"congress":        "CG",
	"lakeview":        "LV",
	"plaza":           "PL",
	"walden":          "WL",
	"lead":            "LD",
	"park hill high":  "PHHS",
	"park hill south": "PHS",
	"aquatic center":  "AQ",
}
