// Package notifier delivers status texts to the configured chat.
//
// Delivery is fire-and-forget: Notify logs a failed send and returns. There
// is no outbound queue and no retry; the next poll cycle is the retry.
//
// A token bucket keeps the bot under the Bot API flood limits, and a small
// in-memory history of recent sends is kept for operator visibility.
package notifier
