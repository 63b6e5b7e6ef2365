package form

// Register is the self-registration form.
type Register struct {
	FirstName     string `form:"first_name" validate:"required,max=100"`
	LastName      string `form:"last_name" validate:"required,max=100"`
	Email         string `form:"email" validate:"required,min=6,max=100,email_chars"`
	Password      string `form:"password,raw" validate:"required,min=8,max=72"`
	Confirm       string `form:"confirm,raw" validate:"required,eqfield=Password"`
	Codeforces    string `form:"codeforces_handle" validate:"max=100"`
	Kattis        string `form:"kattis_handle" validate:"max=100"`
	Olinfo        string `form:"olinfo_handle" validate:"max=100"`
	Github        string `form:"github_handle" validate:"max=100"`
	SwercEligible bool   `form:"is_swerc_eligible"`
	Subscribed    bool   `form:"subscribed"`
}

// Login is the login form.
type Login struct {
	Email    string `form:"email" validate:"required,max=100"`
	Password string `form:"password,raw" validate:"required"`
}

// ForgotPassword asks for a password reset link.
type ForgotPassword struct {
	Email string `form:"email" validate:"required,max=100"`
}

// ResetPassword sets a new password.
type ResetPassword struct {
	Password string `form:"password,raw" validate:"required,min=8,max=72"`
	Confirm  string `form:"confirm,raw" validate:"required,eqfield=Password"`
}

// NewTeam creates a team.
type NewTeam struct {
	Name string `form:"name" validate:"required,max=50"`
}

// Profile edits the current student.
type Profile struct {
	FirstName     string `form:"first_name" validate:"required,max=100"`
	LastName      string `form:"last_name" validate:"required,max=100"`
	Codeforces    string `form:"codeforces_handle" validate:"max=100"`
	Kattis        string `form:"kattis_handle" validate:"max=100"`
	Olinfo        string `form:"olinfo_handle" validate:"max=100"`
	Github        string `form:"github_handle" validate:"max=100"`
	SwercEligible bool   `form:"is_swerc_eligible"`
	Subscribed    bool   `form:"subscribed"`
}
