package classifier

// Indicator vocabularies. All entries are lower case because matching runs
// against lower-cased text.
var (
	codeIndicators = []string{
		"def ", "class ", "import ", "from ", "return", "{", "}", "//", "/",
		"public ", "private ", "function", "var ", "let ", "const ",
		"#include", "package ", "using ", "@", "->", "=>",
	}

	articleIndicators = []string{
		"abstract:", "introduction:", "conclusion:", "in this article",
		"we discuss", "research shows", "according to", "published",
		"study", "author", "argues", "examines", "investigates",
	}

	profileIndicators = []string{
		"experience:", "skills:", "education:", "linkedin", "profile",
		"summary", "professional", "job title", "work history",
	}
)

// indentBonus is added per line that starts with four spaces or a tab.
const indentBonus = 0.5

// postMinWords is the word count a marker-free text must exceed to count as a post.
const postMinWords = 20
