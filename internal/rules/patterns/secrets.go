package patterns

import "regexp"

// SecretPattern describes one detectable secret shape.
type SecretPattern struct {
	Name        string
	Description string
	Expression  *regexp.Regexp
}

// SecretPatterns returns the full secret detection table. Callers must not
// mutate the returned slice.
func SecretPatterns() []SecretPattern {
	return secretPatternTable
}

var secretPatternTable = []SecretPattern{
	{
		Name:        "GitHub Personal Access Token",
		Description: "GitHub personal access tokens start with 'ghp_'",
		Expression:  regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`),
	},
	{
		Name:        "GitHub OAuth Token",
		Description: "GitHub OAuth tokens start with 'gho_'",
		Expression:  regexp.MustCompile(`gho_[A-Za-z0-9]{36}`),
	},
	{
		Name:        "GitHub User-to-Server Token",
		Description: "GitHub user-to-server tokens start with 'ghu_'",
		Expression:  regexp.MustCompile(`ghu_[A-Za-z0-9]{36}`),
	},
	{
		Name:        "GitHub Server-to-Server Token",
		Description: "GitHub server-to-server tokens start with 'ghs_'",
		Expression:  regexp.MustCompile(`ghs_[A-Za-z0-9]{36}`),
	},
	{
		Name:        "GitHub Refresh Token",
		Description: "GitHub refresh tokens start with 'ghr_'",
		Expression:  regexp.MustCompile(`ghr_[A-Za-z0-9]{36}`),
	},
	{
		Name:        "AWS Access Key ID",
		Description: "AWS access keys start with 'AKIA'",
		Expression:  regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	},
	{
		Name:        "AWS Secret Access Key",
		Description: "AWS secret access keys are 40 character strings",
		Expression:  regexp.MustCompile(`(?i)(aws_secret_access_key|aws_secret_key)\s*[=:]\s*['"]?[A-Za-z0-9/+=]{40}['"]?`),
	},
	{
		Name:        "Stripe Live Secret Key",
		Description: "Stripe live secret keys start with 'sk_live_'",
		Expression:  regexp.MustCompile(`sk_live_[0-9a-zA-Z]{24,}`),
	},
	{
		Name:        "Stripe Test Secret Key",
		Description: "Stripe test secret keys start with 'sk_test_'",
		Expression:  regexp.MustCompile(`sk_test_[0-9a-zA-Z]{24,}`),
	},
	{
		Name:        "Stripe Restricted Key",
		Description: "Stripe restricted keys start with 'rk_live_' or 'rk_test_'",
		Expression:  regexp.MustCompile(`rk_(live|test)_[0-9a-zA-Z]{24,}`),
	},
	{
		Name:        "Slack Token",
		Description: "Slack tokens start with 'xox'",
		Expression:  regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z-]{10,48}`),
	},
	{
		Name:        "Google API Key",
		Description: "Google API keys start with 'AIza'",
		Expression:  regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
	},
	{
		Name:        "Google OAuth Token",
		Description: "Google OAuth tokens start with 'ya29.'",
		Expression:  regexp.MustCompile(`ya29\.[0-9A-Za-z\-_]+`),
	},
	{
		Name:        "Firebase Cloud Messaging",
		Description: "Firebase server keys",
		Expression:  regexp.MustCompile(`AAAA[A-Za-z0-9_-]{7}:[A-Za-z0-9_-]{140}`),
	},
	{
		Name:        "Twilio API Key",
		Description: "Twilio API keys start with 'SK'",
		Expression:  regexp.MustCompile(`SK[0-9a-fA-F]{32}`),
	},
	{
		Name:        "SendGrid API Key",
		Description: "SendGrid API keys start with 'SG.'",
		Expression:  regexp.MustCompile(`SG\.[0-9A-Za-z\-_]{22}\.[0-9A-Za-z\-_]{43}`),
	},
	{
		Name:        "Mailgun API Key",
		Description: "Mailgun API keys start with 'key-'",
		Expression:  regexp.MustCompile(`key-[0-9a-zA-Z]{32}`),
	},
	{
		Name:        "npm Token",
		Description: "npm tokens start with 'npm_'",
		Expression:  regexp.MustCompile(`npm_[A-Za-z0-9]{36}`),
	},
	{
		Name:        "Discord Token",
		Description: "Discord bot tokens",
		Expression:  regexp.MustCompile(`[MN][A-Za-z\d]{23,}\.[\w-]{6}\.[\w-]{27}`),
	},
	{
		Name:        "Private Key",
		Description: "PEM encoded private key",
		Expression:  regexp.MustCompile(`-----BEGIN (RSA|DSA|EC|OPENSSH) PRIVATE KEY-----`),
	},
	{
		Name:        "JWT Token",
		Description: "JSON Web Token",
		Expression:  regexp.MustCompile(`eyJ[A-Za-z0-9-_=]+\.eyJ[A-Za-z0-9-_=]+\.[A-Za-z0-9-_.+/=]+`),
	},
	{
		Name:        "MongoDB Connection String",
		Description: "MongoDB connection string with credentials",
		Expression:  regexp.MustCompile(`mongodb(\+srv)?://[^:]+:[^@]+@`),
	},
	{
		Name:        "PostgreSQL Connection String",
		Description: "PostgreSQL connection string with credentials",
		Expression:  regexp.MustCompile(`postgres(ql)?://[^:]+:[^@]+@`),
	},
	{
		Name:        "MySQL Connection String",
		Description: "MySQL connection string with credentials",
		Expression:  regexp.MustCompile(`mysql://[^:]+:[^@]+@`),
	},
	{
		Name:        "Redis Connection String",
		Description: "Redis connection string with credentials",
		Expression:  regexp.MustCompile(`redis://[^:]+:[^@]+@`),
	},
	{
		Name:        "Generic Password Assignment",
		Description: "Password assigned in code",
		Expression:  regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*['"][^'"]{8,}['"]`),
	},
	{
		Name:        "Generic API Key Assignment",
		Description: "API key assigned in code",
		Expression:  regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[=:]\s*['"][^'"]{16,}['"]`),
	},
	{
		Name:        "Generic Secret Assignment",
		Description: "Secret assigned in code",
		Expression:  regexp.MustCompile(`(?i)(secret[_-]?key|secretkey)\s*[=:]\s*['"][^'"]{16,}['"]`),
	},
	{
		Name:        "Generic Token Assignment",
		Description: "Token assigned in code",
		Expression:  regexp.MustCompile(`(?i)(access[_-]?token|auth[_-]?token)\s*[=:]\s*['"][^'"]{16,}['"]`),
	},
	{
		Name:        "URL with Embedded Credentials",
		Description: "URL containing username:password",
		Expression:  regexp.MustCompile(`https?://[^:]+:[^@]+@[^/]+`),
	},
}
