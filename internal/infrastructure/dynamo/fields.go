package dynamo

// Attribute names shared by keys, conditions and update expressions.
const (
	attrUserID         = "user_id"
	attrConversationID = "conversation_id"
	attrMessageID      = "message_id"
	attrToken          = "fcm_token"
	attrTimestamp      = "timestamp"
	attrUpdatedAt      = "updated_at"
)

// maxTransactItems is the DynamoDB limit on actions per TransactWriteItems call.
const maxTransactItems = 100
