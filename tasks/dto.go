// Data transfer objects for the tasks API.
package tasks

// TaskRequest represents the create and update payload. Create and update
// share one shape: both overwrite the entity from the body, with an absent
// description becoming null and an absent status defaulting to 0. The owning
// user always comes from the request path, never from the body.
type TaskRequest struct {
	Title       string  `json:"title" example:"Write the report"`
	Description *string `json:"description,omitempty" example:"Quarterly numbers"`
	// Deadline is an ISO-style date string; null or absent means no deadline.
	Deadline *string `json:"deadline,omitempty" example:"2024-09-01"`
	Status   *int    `json:"status,omitempty" example:"1"`
}
