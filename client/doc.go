// Package client issues HTTP requests against a base URL and wires each
// one into cache observability and revalidation.
//
// Reads (GET and HEAD) are classified with the classify package and, when
// debug.logCacheStatus is set, logged as a "cache status" line. Successful
// mutations (POST, PUT, PATCH and DELETE) hand their tag selector to a
// revalidate.Dispatcher. Revalidation never fails the request that caused
// it.
//
//	c, err := client.New("https://api.example.com",
//		client.WithConfig(store),
//		client.WithInvalidator(remoteClient),
//	)
//	resp, err := c.Post(ctx, "/posts",
//		client.WithBody(post),
//		client.WithRevalidateTags(revalidate.Tags("posts")),
//	)
package client
