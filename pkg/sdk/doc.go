// Package shopper embeds the personal-shopper recommendation pipeline in a Go program.
//
// The client loads a catalog of products with precomputed embeddings, ranks it against
// the embedding of each query and asks a text generation provider for a recommendation
// grounded in the top candidates.
//
//	client, _ := shopper.New(ctx,
//	    shopper.WithFileCatalog("data"),
//	    shopper.WithEmbedder(myEmbedder),
//	    shopper.WithGenerator(myGenerator),
//	)
//	answer, _ := client.Recommend(ctx, "running shoes", []string{"shoe", "footwear"})
//	fmt.Println(answer.Text)
//
// Candidates runs retrieval only and returns scored products without generation.
package shopper
