package template

import "sitebuilder/internal/domain"

var builtins = []domain.Template{
	{
		ID:          "gas-industri-1",
		Name:        "Gas Industri Pro",
		Type:        "gas-industri",
		Description: "Template lengkap untuk bisnis gas industri",
		Category:    "business",
		Content: `<!DOCTYPE html>
<html lang="id">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{website_name}} - Gas Industri</title>
</head>
<body>
    <header>
        <nav>
            <div class="logo">{{website_name}}</div>
            <ul>
                <li><a href="#home">Beranda</a></li>
                <li><a href="#products">Produk</a></li>
                <li><a href="#about">Tentang</a></li>
                <li><a href="#contact">Kontak</a></li>
            </ul>
        </nav>
    </header>

    <main>
        <section id="home">
            <h1>Selamat Datang di {{website_name}}</h1>
            <p>{{description}}</p>
        </section>

        <section id="products">
            <h2>Produk Gas Kami</h2>
            <div class="products-grid"></div>
        </section>

        <section id="contact">
            <h2>Hubungi Kami</h2>
            <form>
                <input type="text" placeholder="Nama">
                <input type="email" placeholder="Email">
                <textarea placeholder="Pesan"></textarea>
                <button type="submit">Kirim</button>
            </form>
        </section>
    </main>

    <footer>
        <p>&copy; {{year}} {{website_name}}. All rights reserved.</p>
    </footer>
</body>
</html>
`,
		Styles: `body { font-family: sans-serif; margin: 0; }
header nav { display: flex; justify-content: space-between; padding: 1rem 2rem; }
header nav ul { display: flex; gap: 1.5rem; list-style: none; }
main section { padding: 3rem 2rem; }
footer { padding: 1rem 2rem; text-align: center; }
`,
		Scripts: `document.querySelectorAll('a[href^="#"]').forEach(function (a) {
    a.addEventListener('click', function (e) {
        e.preventDefault();
        var target = document.querySelector(a.getAttribute('href'));
        if (target) target.scrollIntoView({ behavior: 'smooth' });
    });
});
`,
	},
	{
		ID:          "gas-industri-2",
		Name:        "Gas Modern",
		Type:        "gas-industri",
		Description: "Desain modern untuk perusahaan gas",
		Category:    "business",
		Content: `<!DOCTYPE html>
<html lang="id">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{website_name}}</title>
</head>
<body>
    <header>
        <h1>{{website_name}}</h1>
        <p>{{description}}</p>
    </header>
    <main>
        <section id="products">
            <h2>Produk</h2>
        </section>
        <section id="contact">
            <h2>Kontak</h2>
        </section>
    </main>
    <footer>&copy; {{year}} {{website_name}}</footer>
</body>
</html>
`,
		Styles: `body { font-family: sans-serif; margin: 0; background: #f5f7fa; }
header { padding: 4rem 2rem; background: #1f2a44; color: #fff; }
main section { padding: 2.5rem 2rem; }
`,
	},
	{
		ID:          "toko-online-1",
		Name:        "Toko Sederhana",
		Type:        "toko-online",
		Description: "Template toko online satu halaman",
		Category:    "ecommerce",
		Content: `<!DOCTYPE html>
<html lang="id">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{website_name}} - Toko Online</title>
</head>
<body>
    <header>
        <h1>{{website_name}}</h1>
        <p>{{description}}</p>
    </header>
    <main>
        <section id="catalog">
            <h2>Katalog Produk</h2>
            <div class="products-grid"></div>
        </section>
        <section id="order">
            <h2>Pemesanan</h2>
            <p>Hubungi kami untuk memesan.</p>
        </section>
    </main>
    <footer>&copy; {{year}} {{website_name}}</footer>
</body>
</html>
`,
		Styles: `body { font-family: sans-serif; margin: 0; }
.products-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: 1rem; }
`,
	},
}
