package library

import "github.com/blazethunderstorm/screen-recorder/internal/models"

// CanView reports whether the principal may read the video.
func CanView(video models.Video, principal *models.Principal) bool {
	if video.Visibility == models.VisibilityPublic {
		return true
	}
	return isOwner(video, principal)
}

// CanMutate reports whether the principal may update or delete the video.
func CanMutate(video models.Video, principal *models.Principal) bool {
	return isOwner(video, principal)
}

func isOwner(video models.Video, principal *models.Principal) bool {
	return principal != nil && principal.ID != "" && principal.ID == video.OwnerID
}
