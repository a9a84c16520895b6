package domain

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID int64
	Role   UserRole
}

func (a Actor) Elevated() bool {
	return a.Role == RoleAdmin
}

// CanManage reports whether the caller owns ownerID's resources or is elevated.
func (a Actor) CanManage(ownerID int64) bool {
	return a.Elevated() || (a.UserID != 0 && a.UserID == ownerID)
}
