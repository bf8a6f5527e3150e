package mqtt

// Topic layout:
//
//	voltgrid/stats/<owner_id>   retained, latest snapshot per owner
//	voltgrid/system/status      retained, service online/offline
const topicPrefix = "voltgrid"

// StatsTopic returns the snapshot topic for an owner.
func StatsTopic(ownerID string) string {
	return topicPrefix + "/stats/" + ownerID
}

// SystemStatusTopic returns the service status topic.
func SystemStatusTopic() string {
	return topicPrefix + "/system/status"
}
