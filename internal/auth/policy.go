package auth

// AuthorizeReportAccess applies the report ownership rule: users may touch any
// ship's reports, a ship only its own.
func AuthorizeReportAccess(principal Principal, reportShipID int64) error {
	switch {
	case principal.IsUser():
		return nil
	case principal.IsShip():
		if principal.Ship.ID == reportShipID {
			return nil
		}
		return ErrForbidden
	default:
		return ErrUnauthenticated
	}
}
