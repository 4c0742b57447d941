/*
Package cipher reads the player script that signed stream URLs depend on.

A ScriptResolver downloads the script behind a player script URL once per
TTL and extracts two things from it:

  - the signature timestamp that player requests must echo back
  - the signature routine: the function that rearranges the signature and
    the helper object whose methods it calls, reduced to a list of steps

The routine is only located and syntax-checked with the otto parser. This
package never runs it or applies it to a signature.

# Usage

	client := innertube.New(nil)
	resolver := cipher.NewScriptResolver(client)

	info, err := resolver.Resolve(ctx, scriptURL)
	if err != nil {
		return err
	}
	doc, err := client.Player(ctx, videoID, info.Timestamp)

Concurrent calls for the same URL share one download.

# Error Codes

  - SIGNATURE_TIMESTAMP_NOT_FOUND: the script carries no signatureTimestamp
  - SIGNATURE_ROUTINE_NOT_FOUND: no split("")/join("") function was found
  - JS_PARSING_FAILED: the extracted routine is not valid JavaScript

Download failures are returned as the fetcher reported them.
*/
package cipher
