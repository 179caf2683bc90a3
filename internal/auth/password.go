package auth

// SubmitPasswordChange validates the change-password form.
// current is accepted but never checked, and no secret is persisted.
func SubmitPasswordChange(current, newSecret, confirm string) error {
	if current == "" || newSecret == "" || confirm == "" {
		return ErrMissingFields
	}
	if confirm != newSecret {
		return ErrPasswordMismatch
	}
	return nil
}
