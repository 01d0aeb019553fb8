package review

import "regexp"

type ruleDef struct {
	id          string
	category    Category
	severity    Severity
	pattern     string
	title       string
	description string
	suggestion  string
}

var javascriptRules = []ruleDef{
	{
		id: "js-eval", category: CategorySecurity, severity: SeverityCritical,
		pattern:     `(?i)eval\s*\(`,
		title:       "Dangerous eval() usage",
		description: "Using eval() can lead to code injection vulnerabilities.",
		suggestion:  "Replace eval() with safer alternatives like JSON.parse().",
	},
	{
		id: "js-sql-concat", category: CategorySecurity, severity: SeverityCritical,
		pattern:     `(?i)(SELECT|INSERT|UPDATE|DELETE).*\+`,
		title:       "SQL Injection vulnerability",
		description: "String concatenation in SQL queries can lead to SQL injection.",
		suggestion:  "Use parameterized queries or prepared statements.",
	},
	{
		id: "js-inner-html", category: CategorySecurity, severity: SeverityHigh,
		pattern:     `(?i)\.innerHTML\s*=`,
		title:       "XSS vulnerability with innerHTML",
		description: "Setting innerHTML with user input can lead to XSS attacks.",
		suggestion:  "Use textContent or sanitize input before setting innerHTML.",
	},
	{
		id: "js-var", category: CategoryBug, severity: SeverityHigh,
		pattern:     `var\s+\w+`,
		title:       "Use of var instead of let/const",
		description: "Using var can lead to unexpected behavior due to hoisting.",
		suggestion:  "Replace var with let or const.",
	},
	{
		id: "js-console", category: CategoryBug, severity: SeverityMedium,
		pattern:     `(?i)console\.(log|warn|error)`,
		title:       "Console statement in code",
		description: "Console statements should be removed before production.",
		suggestion:  "Remove console statements or use a proper logging library.",
	},
	{
		id: "js-dom-in-loop", category: CategoryPerformance, severity: SeverityMedium,
		pattern:     `(?i)for\s*\([^)]*\)[\s\S]{0,100}document\.querySelector`,
		title:       "DOM query inside loop",
		description: "Querying DOM inside loop impacts performance.",
		suggestion:  "Cache the DOM query result outside the loop.",
	},
}

var pythonRules = []ruleDef{
	{
		id: "py-eval", category: CategorySecurity, severity: SeverityCritical,
		pattern:     `(?i)eval\s*\(`,
		title:       "Dangerous eval() usage",
		description: "eval() can execute arbitrary code.",
		suggestion:  "Use ast.literal_eval() for safe evaluation.",
	},
	{
		id: "py-bare-except", category: CategoryBug, severity: SeverityMedium,
		pattern:     `except\s*:`,
		title:       "Bare except clause",
		description: "Catching all exceptions can hide bugs.",
		suggestion:  "Catch specific exceptions.",
	},
}

var goRules = []ruleDef{
	{
		id: "go-shell-exec", category: CategorySecurity, severity: SeverityHigh,
		pattern:     `exec\.Command(Context)?\([^)]*"(sh|bash)"\s*,\s*"-c"`,
		title:       "Shell command execution",
		description: "Running commands through a shell enables injection when arguments are user controlled.",
		suggestion:  "Invoke the binary directly with exec.Command and pass arguments separately.",
	},
	{
		id: "go-insecure-tls", category: CategorySecurity, severity: SeverityHigh,
		pattern:     `InsecureSkipVerify:\s*true`,
		title:       "TLS certificate verification disabled",
		description: "Skipping certificate verification allows man-in-the-middle attacks.",
		suggestion:  "Remove InsecureSkipVerify or configure RootCAs for private certificates.",
	},
	{
		id: "go-weak-hash", category: CategorySecurity, severity: SeverityMedium,
		pattern:     `\b(md5|sha1)\.(New|Sum)\b`,
		title:       "Weak hash algorithm",
		description: "MD5 and SHA-1 are broken for security purposes.",
		suggestion:  "Use crypto/sha256 or stronger.",
	},
	{
		id: "go-debug-print", category: CategoryBug, severity: SeverityLow,
		pattern:     `(\bfmt\.Print(ln|f)?\(|^\s*println\()`,
		title:       "Debug print statement",
		description: "Direct prints to stdout are usually leftover debugging.",
		suggestion:  "Use a structured logger or remove the statement.",
	},
}

var genericRules = []ruleDef{
	{
		id: "generic-hardcoded-credentials", category: CategorySecurity, severity: SeverityCritical,
		pattern:     `(?i)(password|secret|api[_-]?key|token)\s*[:=]\s*['"][^'"]+['"]`,
		title:       "Hardcoded credentials detected",
		description: "Hardcoded secrets pose a serious security risk.",
		suggestion:  "Use environment variables or secure credential management.",
	},
	{
		id: "generic-private-key", category: CategorySecurity, severity: SeverityCritical,
		pattern:     `-----BEGIN\s+([A-Z]+\s+)?PRIVATE KEY-----`,
		title:       "Private key committed",
		description: "Private key material in source control is exposed to everyone with read access.",
		suggestion:  "Remove the key, rotate it, and load it from a secret store.",
	},
	{
		id: "generic-security-todo", category: CategorySecurity, severity: SeverityHigh,
		pattern:     `(?i)TODO.*security`,
		title:       "Security-related TODO found",
		description: "Security TODOs should be addressed before production.",
		suggestion:  "Complete the security task or create a ticket.",
	},
	{
		id: "generic-fixme", category: CategoryStyle, severity: SeverityLow,
		pattern:     `\bFIXME\b`,
		title:       "FIXME marker",
		description: "FIXME markers flag known-broken code.",
		suggestion:  "Resolve the issue or track it in the issue tracker.",
	},
}

// DefaultRules returns the built-in rule table. JavaScript rules also apply
// to TypeScript.
func DefaultRules() []Rule {
	var rules []Rule
	rules = append(rules, compileDefs("javascript", javascriptRules)...)
	rules = append(rules, compileDefs("typescript", javascriptRules)...)
	rules = append(rules, compileDefs("python", pythonRules)...)
	rules = append(rules, compileDefs("go", goRules)...)
	rules = append(rules, compileDefs(GenericLanguage, genericRules)...)
	return rules
}

// DefaultRegistry builds a registry from DefaultRules.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultRules())
	if err != nil {
		panic("review: invalid built-in rules: " + err.Error())
	}
	return r
}

func compileDefs(language string, defs []ruleDef) []Rule {
	rules := make([]Rule, len(defs))
	for i, d := range defs {
		rules[i] = Rule{
			ID:          d.id,
			Language:    language,
			Category:    d.category,
			Severity:    d.severity,
			Pattern:     regexp.MustCompile(d.pattern),
			Title:       d.title,
			Description: d.description,
			Suggestion:  d.suggestion,
		}
	}
	return rules
}
