package properties

import (
	"context"

	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	domainuser "staywise/internal/domain/user"
)

// attachOwners fills Owner on each view. A dangling owner id leaves it nil.
func attachOwners(ctx context.Context, rel *handlersupport.Relations, views []dto.PropertyView, withEmail bool) error {
	for i := range views {
		owner, err := rel.User(ctx, domainuser.ID(views[i].OwnerID))
		if err != nil {
			return err
		}
		views[i].Owner = dto.MapOwner(owner, withEmail)
	}
	return nil
}
