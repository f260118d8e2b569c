// crawler ingests merchant catalogs and publishes them as outfit posts.
//
//	go run ./cmd/crawler run --source demo --category man --limit 3 --dry-run
//	go run ./cmd/crawler run --source zalando --category mode-femme --new-arrivals 7 --order newest
//	go run ./cmd/crawler sources
//	go run ./cmd/crawler schema
package main

import "merchingest/cmd/crawler/cmd"

func main() {
	cmd.Execute()
}
