package workflow

// DefaultOrder is the reference workflow sequence, earliest first.
var DefaultOrder = []string{
	"Backlog",
	"Open",
	"To Do",
	"Selected for Development",
	"In Analysis",
	"Ready for Development",
	"In Progress",
	"On Hold",
	"Blocked",
	"In Review",
	"Ready for Testing",
	"Testing",
	"Ready for Acceptance",
	"Acceptance",
	"Ready for Release",
	"Released",
	"Resolved",
	"Completed",
	"Closed",
	"Done",
}

// DefaultAliases maps legacy, localized and spelling variants to canonical names.
// Keys are matched case-insensitively after trimming.
var DefaultAliases = map[string]string{
	// spelling variants
	"todo":                   "To Do",
	"to-do":                  "To Do",
	"to_do":                  "To Do",
	"selected":               "Selected for Development",
	"analysis":               "In Analysis",
	"ready for dev":          "Ready for Development",
	"in-progress":            "In Progress",
	"in_progress":            "In Progress",
	"inprogress":             "In Progress",
	"in progress2":           "In Progress",
	"in development":         "In Progress",
	"on-hold":                "On Hold",
	"hold":                   "On Hold",
	"in-review":              "In Review",
	"in_review":              "In Review",
	"review":                 "In Review",
	"code review":            "In Review",
	"ready for test":         "Ready for Testing",
	"ready for qa":           "Ready for Testing",
	"test":                   "Testing",
	"in testing":             "Testing",
	"qa":                     "Testing",
	"uat":                    "Acceptance",
	"complete":               "Completed",
	"finished":               "Completed",
	"w trakcie":              "In Progress",
	"w toku":                 "In Progress",
	"w realizacji":           "In Progress",
	"do zrobienia":           "To Do",
	"otwarte":                "Open",
	"otwarty":                "Open",
	"nowe":                   "Open",
	"zaległości":             "Backlog",
	"wybrane do realizacji":  "Selected for Development",
	"w analizie":             "In Analysis",
	"gotowe do realizacji":   "Ready for Development",
	"wstrzymane":             "On Hold",
	"zablokowane":            "Blocked",
	"w przeglądzie":          "In Review",
	"przegląd kodu":          "In Review",
	"gotowe do testów":       "Ready for Testing",
	"testowanie":             "Testing",
	"testy":                  "Testing",
	"akceptacja":             "Acceptance",
	"gotowe do wydania":      "Ready for Release",
	"wydane":                 "Released",
	"rozwiązane":             "Resolved",
	"zakończone":             "Completed",
	"zamknięte":              "Closed",
	"gotowe":                 "Done",
	"zrobione":               "Done",
}

// DefaultCategories lists the statuses of every category except Waiting,
// which is the fallback for everything else.
var DefaultCategories = map[Category][]string{
	Backlog:    {"Backlog"},
	Processing: {"In Progress", "In Review", "Testing"},
	Completed:  {"Completed", "Done", "Closed", "Resolved"},
}
