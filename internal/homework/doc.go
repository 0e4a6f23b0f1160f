// Package homework talks to the Practicum homework-status API and turns its
// answers into user-facing notification texts.
//
// The flow for one poll is:
//
//	doc, err := client.Fetch(ctx, cursor) // GET ?from_date=cursor
//	list, err := CheckResponse(doc)       // shape validation
//	text, err := ParseStatus(list[0])     // "Изменился статус проверки работы ..."
//
// Errors returned by this package carry Russian texts because they end up in
// the chat verbatim. Match them with errors.Is against the Err* sentinels.
package homework
