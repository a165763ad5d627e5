package main

import (
	"flag"
	"log"
	"net/http"
)

func main() {
	dir := flag.String("dir", "data/mirror", "directory of <series_id>.html pages")
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	http.HandleFunc("/seriesissues.php", mirrorHandler(*dir))

	log.Printf("mirror-server listening on %s (serving %s)", *addr, *dir)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
