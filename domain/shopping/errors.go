package shopping

import "pantry/domain/shared"

const entityName = "shopping_session"

const (
	msgDuplicateActive = "同一ユーザーで同時にアクティブなセッションは1つのみです"
	msgCannotComplete  = "アクティブでないセッションは完了できません"
	msgCannotAbandon   = "アクティブでないセッションは中断できません"
	msgCannotCheck     = "アクティブでないセッションでは食材を確認できません"
)

// NewDuplicateActiveSessionError is raised by the factory, and by adapters
// when the one-active-session unique index fires.
func NewDuplicateActiveSessionError() error {
	return shared.NewDuplicateError(entityName, msgDuplicateActive)
}

func NewNotFoundError(id string) error {
	return shared.NewNotFoundError(entityName, id)
}

func NewConcurrentModificationError(id string) error {
	return shared.NewConcurrentModificationError(entityName, id)
}
