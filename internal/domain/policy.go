package domain

// Access policy decisions consumed by the HTTP layer. All of these are
// pure functions of the caller's role and the target's role/ownership.
// A nil caller means the request is anonymous.

// CanCreateUser reports whether caller may create an account with the
// given permission flags. Superusers may create anything; anonymous
// callers and strictly-staff users (staff but not superuser) may create
// jogger accounts only.
func CanCreateUser(caller *User, targetStaff, targetSuperuser bool) bool {
	if caller != nil && caller.IsSuperuser {
		return true
	}

	isAnonymous := caller == nil
	isStrictlyStaff := caller != nil && caller.IsStaff && !caller.IsSuperuser
	isTargetJogger := !targetStaff && !targetSuperuser

	return (isAnonymous || isStrictlyStaff) && isTargetJogger
}

// CanModifyUser reports whether caller may read, update or delete the
// target account. Superusers may touch anything, staff may touch jogger
// accounts, and any user may touch their own record.
func CanModifyUser(caller, target *User) bool {
	if caller == nil || target == nil {
		return false
	}
	if caller.IsSuperuser {
		return true
	}
	if caller.IsStaff && target.Role() == RoleJogger {
		return true
	}
	return caller.ID == target.ID
}

// CanAccessSessions reports whether caller may use the session endpoints
// at all. Anonymous callers are rejected, and so are strictly-staff
// accounts: staff manage users, they do not jog.
func CanAccessSessions(caller *User) bool {
	if caller == nil {
		return false
	}
	return !(caller.IsStaff && !caller.IsSuperuser)
}
