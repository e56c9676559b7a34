package technique

var BuildResponseSchema = buildResponseSchema
