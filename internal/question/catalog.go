package question

// TopicID identifies a topic within a language's catalog.
type TopicID string

func (t TopicID) String() string { return string(t) }

// Topic pairs a topic id with its display name, used in prompts and
// exposed through the topics endpoint.
type Topic struct {
	ID   TopicID `json:"id"`
	Name string  `json:"name"`
}

// languageTopics is the static per-language topic catalog. Order matters:
// the topics endpoint returns it as-is.
var languageTopics = map[Language][]Topic{
	LanguagePython: {
		{ID: "variables_types", Name: "Variables and data types"},
		{ID: "lists_arrays", Name: "Lists and arrays"},
		{ID: "dictionaries", Name: "Dictionaries"},
		{ID: "functions", Name: "Functions"},
		{ID: "closures", Name: "Closures"},
		{ID: "decorators", Name: "Decorators"},
		{ID: "generators", Name: "Generators"},
		{ID: "classes_oop", Name: "Classes and OOP"},
		{ID: "exceptions", Name: "Exception handling"},
		{ID: "context_managers", Name: "Context managers"},
		{ID: "async_await", Name: "Asynchronous programming"},
	},
	LanguageJavaScript: {
		{ID: "variables_types", Name: "Variables and types"},
		{ID: "arrays", Name: "Arrays"},
		{ID: "objects", Name: "Objects"},
		{ID: "functions", Name: "Functions"},
		{ID: "closures", Name: "Closures"},
		{ID: "this_binding", Name: "Execution context (this)"},
		{ID: "prototypes", Name: "Prototypes"},
		{ID: "classes", Name: "Classes (ES6+)"},
		{ID: "promises_async", Name: "Promises and async/await"},
		{ID: "event_loop", Name: "Event loop"},
		{ID: "destructuring", Name: "Destructuring"},
		{ID: "modules", Name: "Modules (ES6+)"},
	},
	LanguageGo: {
		{ID: "variables_types", Name: "Variables and types"},
		{ID: "slices", Name: "Slices"},
		{ID: "maps", Name: "Maps"},
		{ID: "functions", Name: "Functions"},
		{ID: "methods", Name: "Methods"},
		{ID: "interfaces", Name: "Interfaces"},
		{ID: "goroutines", Name: "Goroutines"},
		{ID: "channels", Name: "Channels"},
		{ID: "select", Name: "Select statement"},
		{ID: "defer_panic_recover", Name: "Defer, panic, recover"},
		{ID: "pointers", Name: "Pointers"},
		{ID: "structs", Name: "Structs"},
	},
	LanguageJava: {
		{ID: "variables_types", Name: "Variables and types"},
		{ID: "arrays_lists", Name: "Arrays and lists"},
		{ID: "collections", Name: "Collections (Set, Map)"},
		{ID: "methods", Name: "Methods"},
		{ID: "classes_objects", Name: "Classes and objects"},
		{ID: "inheritance", Name: "Inheritance"},
		{ID: "interfaces", Name: "Interfaces"},
		{ID: "generics", Name: "Generics"},
		{ID: "exceptions", Name: "Exceptions"},
		{ID: "streams", Name: "Streams API"},
		{ID: "lambda_expressions", Name: "Lambda expressions"},
		{ID: "concurrency", Name: "Concurrency"},
	},
	LanguageCpp: {
		{ID: "variables_types", Name: "Variables and types"},
		{ID: "pointers_references", Name: "Pointers and references"},
		{ID: "arrays_vectors", Name: "Arrays and vectors"},
		{ID: "functions", Name: "Functions"},
		{ID: "classes_objects", Name: "Classes and objects"},
		{ID: "inheritance", Name: "Inheritance"},
		{ID: "templates", Name: "Templates"},
		{ID: "smart_pointers", Name: "Smart pointers"},
		{ID: "stl", Name: "STL containers and algorithms"},
		{ID: "move_semantics", Name: "Move semantics"},
		{ID: "lambda", Name: "Lambda expressions"},
		{ID: "multithreading", Name: "Multithreading"},
	},
	LanguageRust: {
		{ID: "variables_types", Name: "Variables and types"},
		{ID: "ownership", Name: "Ownership"},
		{ID: "borrowing", Name: "Borrowing"},
		{ID: "lifetimes", Name: "Lifetimes"},
		{ID: "vectors", Name: "Vectors"},
		{ID: "hashmaps", Name: "HashMap"},
		{ID: "functions", Name: "Functions"},
		{ID: "structs", Name: "Structs"},
		{ID: "enums", Name: "Enums"},
		{ID: "pattern_matching", Name: "Pattern matching"},
		{ID: "error_handling", Name: "Error handling (Result, Option)"},
		{ID: "concurrency", Name: "Concurrency"},
	},
	LanguageTypeScript: {
		{ID: "types", Name: "Types"},
		{ID: "interfaces", Name: "Interfaces"},
		{ID: "generics", Name: "Generics"},
		{ID: "unions_intersections", Name: "Union and intersection types"},
		{ID: "type_guards", Name: "Type guards"},
		{ID: "decorators", Name: "Decorators"},
		{ID: "utility_types", Name: "Utility types"},
		{ID: "modules", Name: "Modules"},
		{ID: "async_promises", Name: "Asynchronous code"},
		{ID: "classes", Name: "Classes"},
		{ID: "namespaces", Name: "Namespaces"},
	},
}

// TopicsFor returns the ordered topic list for a language. Unknown
// languages yield an empty list.
func TopicsFor(language Language) []Topic {
	return languageTopics[language]
}

// IsValidTopic reports whether the topic belongs to the language's catalog.
func IsValidTopic(language Language, topic TopicID) bool {
	for _, t := range languageTopics[language] {
		if t.ID == topic {
			return true
		}
	}
	return false
}

// TopicName resolves a topic id to its display name, falling back to the
// raw id for unknown topics.
func TopicName(language Language, topic TopicID) string {
	for _, t := range languageTopics[language] {
		if t.ID == topic {
			return t.Name
		}
	}
	return string(topic)
}
